package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/troikatech/planwise/pkg/application/dto"
	"github.com/troikatech/planwise/pkg/domain/entities"
)

// setupHoursCap is the maximum setup time carved out of a schedule before
// the remainder becomes production work
const setupHoursCap = 2

// specializationFor maps task types to the specialization tag preferred
// when picking staff
var specializationFor = map[entities.TaskType]string{
	entities.TaskSetup:      "assembly",
	entities.TaskProduction: "production",
}

// StaffAssigner assigns staff to the tasks implied by a batch of
// schedules, minimizing cost and workload imbalance while preferring
// specialization matches. Daily workloads are recomputed per run from
// committed assignments, never cached.
type StaffAssigner struct {
	newID func() entities.AssignmentID
}

// NewStaffAssigner creates a StaffAssigner
func NewStaffAssigner() *StaffAssigner {
	return &StaffAssigner{
		newID: func() entities.AssignmentID { return entities.AssignmentID(uuid.NewString()) },
	}
}

// staffState tracks one roster member's accumulating load during a run
type staffState struct {
	member     *entities.Staff
	dayHours   map[string]int
	totalHours int
}

// task is one unit of work implied by a schedule
type task struct {
	scheduleID entities.ScheduleID
	taskType   entities.TaskType
	hours      int
	start      time.Time
}

// Assign produces task assignments for the given schedules. Tasks no staff
// member can take without breaching a daily hour cap come back flagged
// understaffed; the schedules themselves still stand.
func (a *StaffAssigner) Assign(
	schedules []*entities.ProductionSchedule,
	roster []*entities.Staff,
	committed []*entities.TaskAssignment,
) ([]*entities.TaskAssignment, []dto.UnderstaffedTask) {
	states := make([]*staffState, 0, len(roster))
	byID := make(map[entities.StaffID]*staffState, len(roster))
	for _, member := range roster {
		state := &staffState{member: member, dayHours: make(map[string]int)}
		states = append(states, state)
		byID[member.ID] = state
	}

	// Seed per-day loads from assignments already committed to the store
	for _, assignment := range committed {
		if state, ok := byID[assignment.StaffID]; ok {
			addTaskHours(state, assignment.Start, assignment.Hours)
		}
	}

	var assignments []*entities.TaskAssignment
	var understaffed []dto.UnderstaffedTask

	for _, schedule := range schedules {
		for _, t := range tasksFor(schedule) {
			state := a.pick(states, t)
			if state == nil {
				understaffed = append(understaffed, dto.UnderstaffedTask{
					ScheduleID: t.scheduleID,
					TaskType:   t.taskType,
					Hours:      t.hours,
				})
				continue
			}

			assignment, err := entities.NewTaskAssignment(
				a.newID(), state.member.ID, t.scheduleID, t.taskType, t.hours, t.start, state.member.HourlyRate)
			if err != nil {
				// Tasks are built from validated schedules; treat a bad
				// one as unstaffable rather than aborting the batch
				understaffed = append(understaffed, dto.UnderstaffedTask{
					ScheduleID: t.scheduleID,
					TaskType:   t.taskType,
					Hours:      t.hours,
				})
				continue
			}

			addTaskHours(state, t.start, t.hours)
			assignments = append(assignments, assignment)
		}
	}

	return assignments, understaffed
}

// tasksFor splits a schedule into a setup task and a production task, the
// setup capped at two hours
func tasksFor(schedule *entities.ProductionSchedule) []task {
	duration := schedule.DurationHours()
	if duration <= 0 {
		return nil
	}

	setup := setupHoursCap
	if duration < setup {
		setup = duration
	}
	production := duration - setup
	if production < 1 {
		production = 1
	}

	return []task{
		{scheduleID: schedule.ID, taskType: entities.TaskSetup, hours: setup, start: schedule.Start},
		{scheduleID: schedule.ID, taskType: entities.TaskProduction, hours: production, start: schedule.Start.Add(time.Duration(setup) * time.Hour)},
	}
}

// pick chooses the staff member for a task: specialization matches first,
// then lowest resulting workload, then lowest hourly rate, then ID. Staff
// who would breach a daily cap are excluded.
func (a *StaffAssigner) pick(states []*staffState, t task) *staffState {
	want := specializationFor[t.taskType]

	var best *staffState
	bestMatched := false
	for _, state := range states {
		if !canTake(state, t.start, t.hours) {
			continue
		}
		matched := state.member.Specialization == want
		if best == nil {
			best, bestMatched = state, matched
			continue
		}
		if matched != bestMatched {
			if matched {
				best, bestMatched = state, matched
			}
			continue
		}
		// Same task hours either way, so the resulting max workload is
		// minimized by the member with the lighter current load
		if state.totalHours != best.totalHours {
			if state.totalHours < best.totalHours {
				best = state
			}
			continue
		}
		if !state.member.HourlyRate.Equal(best.member.HourlyRate) {
			if state.member.HourlyRate.LessThan(best.member.HourlyRate) {
				best = state
			}
			continue
		}
		if state.member.ID < best.member.ID {
			best = state
		}
	}
	return best
}

// canTake reports whether assigning the task keeps every touched calendar
// day within the member's daily hour cap
func canTake(state *staffState, start time.Time, hours int) bool {
	for day, dayHours := range splitByDay(start, hours) {
		if state.dayHours[day]+dayHours > state.member.MaxHoursPerDay {
			return false
		}
	}
	return true
}

// addTaskHours accumulates a task's hours into the member's day buckets
func addTaskHours(state *staffState, start time.Time, hours int) {
	for day, dayHours := range splitByDay(start, hours) {
		state.dayHours[day] += dayHours
	}
	state.totalHours += hours
}

// splitByDay buckets an hour-granular task interval by UTC calendar day
func splitByDay(start time.Time, hours int) map[string]int {
	buckets := make(map[string]int)
	cursor := start.UTC()
	for i := 0; i < hours; i++ {
		buckets[cursor.Format("2006-01-02")]++
		cursor = cursor.Add(time.Hour)
	}
	return buckets
}
