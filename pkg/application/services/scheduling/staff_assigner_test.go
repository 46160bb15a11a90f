package scheduling

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troikatech/planwise/pkg/domain/entities"
)

func mustStaff(t *testing.T, id entities.StaffID, specialization string, rate int64, maxHoursPerDay int) *entities.Staff {
	t.Helper()
	member, err := entities.NewStaff(id, string(id), specialization, entities.SkillIntermediate, decimal.NewFromInt(rate), maxHoursPerDay)
	require.NoError(t, err)
	return member
}

func mustSchedule(t *testing.T, id entities.ScheduleID, start time.Time, hours int) *entities.ProductionSchedule {
	t.Helper()
	sched, err := entities.NewProductionSchedule(id, "ORD-1", "LINE-1", start, start.Add(time.Duration(hours)*time.Hour))
	require.NoError(t, err)
	return sched
}

func TestStaffAssigner_SplitsSetupAndProduction(t *testing.T) {
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	schedule := mustSchedule(t, "SCH-1", start, 10)
	roster := []*entities.Staff{
		mustStaff(t, "STAFF-A", "assembly", 40, 12),
		mustStaff(t, "STAFF-B", "production", 30, 12),
	}

	assignments, understaffed := NewStaffAssigner().Assign(
		[]*entities.ProductionSchedule{schedule}, roster, nil)
	require.Empty(t, understaffed)
	require.Len(t, assignments, 2)

	setup, production := assignments[0], assignments[1]
	assert.Equal(t, entities.TaskSetup, setup.TaskType)
	assert.Equal(t, entities.StaffID("STAFF-A"), setup.StaffID)
	assert.Equal(t, 2, setup.Hours)
	assert.Equal(t, start, setup.Start)

	assert.Equal(t, entities.TaskProduction, production.TaskType)
	assert.Equal(t, entities.StaffID("STAFF-B"), production.StaffID)
	assert.Equal(t, 8, production.Hours)
	assert.Equal(t, start.Add(2*time.Hour), production.Start)

	assert.True(t, setup.Cost.Equal(decimal.NewFromInt(80)))
	assert.True(t, production.Cost.Equal(decimal.NewFromInt(240)))
}

func TestStaffAssigner_SpecializationBeatsRate(t *testing.T) {
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	schedule := mustSchedule(t, "SCH-1", start, 6)
	roster := []*entities.Staff{
		mustStaff(t, "STAFF-CHEAP", "assembly", 10, 12),
		mustStaff(t, "STAFF-SPEC", "production", 90, 12),
	}

	assignments, understaffed := NewStaffAssigner().Assign(
		[]*entities.ProductionSchedule{schedule}, roster, nil)
	require.Empty(t, understaffed)

	for _, assignment := range assignments {
		if assignment.TaskType == entities.TaskProduction {
			assert.Equal(t, entities.StaffID("STAFF-SPEC"), assignment.StaffID,
				"specialization match outranks a lower rate")
		}
	}
}

func TestStaffAssigner_TieBreaksOnWorkloadThenRateThenID(t *testing.T) {
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	schedules := []*entities.ProductionSchedule{
		mustSchedule(t, "SCH-1", start, 4),
		mustSchedule(t, "SCH-2", start, 4),
	}
	// Setups all land on the assembly member; the two equal-rate
	// production members then split the production tasks: the first goes
	// to the lower ID, the second to whoever is now lighter.
	roster := []*entities.Staff{
		mustStaff(t, "STAFF-A", "assembly", 40, 12),
		mustStaff(t, "STAFF-B", "production", 30, 12),
		mustStaff(t, "STAFF-C", "production", 30, 12),
	}

	assignments, understaffed := NewStaffAssigner().Assign(schedules, roster, nil)
	require.Empty(t, understaffed)

	var productionStaff []entities.StaffID
	for _, assignment := range assignments {
		if assignment.TaskType == entities.TaskProduction {
			productionStaff = append(productionStaff, assignment.StaffID)
		}
	}
	require.Equal(t, []entities.StaffID{"STAFF-B", "STAFF-C"}, productionStaff)
}

func TestStaffAssigner_DailyCapBreachesFlagUnderstaffed(t *testing.T) {
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	schedule := mustSchedule(t, "SCH-1", start, 10)
	// Cap of 4 hours: the 2h setup fits, the 8h production does not
	roster := []*entities.Staff{mustStaff(t, "STAFF-A", "production", 30, 4)}

	assignments, understaffed := NewStaffAssigner().Assign(
		[]*entities.ProductionSchedule{schedule}, roster, nil)

	require.Len(t, assignments, 1)
	assert.Equal(t, entities.TaskSetup, assignments[0].TaskType)

	require.Len(t, understaffed, 1)
	assert.Equal(t, entities.ScheduleID("SCH-1"), understaffed[0].ScheduleID)
	assert.Equal(t, entities.TaskProduction, understaffed[0].TaskType)
	assert.Equal(t, 8, understaffed[0].Hours)
}

func TestStaffAssigner_CommittedAssignmentsCountTowardCaps(t *testing.T) {
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	schedule := mustSchedule(t, "SCH-NEW", start, 4)
	roster := []*entities.Staff{mustStaff(t, "STAFF-A", "production", 30, 8)}

	// 7 of the member's 8 daily hours are already committed
	committed, err := entities.NewTaskAssignment(
		"ASSIGN-PRIOR", "STAFF-A", "SCH-PRIOR", entities.TaskProduction, 7,
		start.Add(-7*time.Hour), decimal.NewFromInt(30))
	require.NoError(t, err)

	assignments, understaffed := NewStaffAssigner().Assign(
		[]*entities.ProductionSchedule{schedule}, roster,
		[]*entities.TaskAssignment{committed})

	assert.Empty(t, assignments)
	assert.Len(t, understaffed, 2)
}

func TestStaffAssigner_TaskCrossingMidnightUsesBothDayBudgets(t *testing.T) {
	// 22:00 to 04:00: two hours on day one, four on day two
	start := time.Date(2026, 9, 1, 22, 0, 0, 0, time.UTC)
	schedule := mustSchedule(t, "SCH-1", start, 6)
	roster := []*entities.Staff{mustStaff(t, "STAFF-A", "production", 30, 4)}

	assignments, understaffed := NewStaffAssigner().Assign(
		[]*entities.ProductionSchedule{schedule}, roster, nil)

	// Setup (2h, day one) fits; production (4h starting at midnight) also
	// fits because it lands entirely on day two.
	require.Len(t, assignments, 2)
	assert.Empty(t, understaffed)
}

func TestSplitByDay(t *testing.T) {
	start := time.Date(2026, 9, 1, 22, 0, 0, 0, time.UTC)
	buckets := splitByDay(start, 5)
	assert.Equal(t, map[string]int{"2026-09-01": 2, "2026-09-02": 3}, buckets)
}
