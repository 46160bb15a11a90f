package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StaffID uniquely identifies a staff member
type StaffID string

// AssignmentID uniquely identifies a task assignment
type AssignmentID string

// SkillLevel represents a staff member's proficiency grade
type SkillLevel int

const (
	SkillJunior SkillLevel = iota
	SkillIntermediate
	SkillSenior
)

// String method for SkillLevel enum
func (l SkillLevel) String() string {
	switch l {
	case SkillJunior:
		return "Junior"
	case SkillIntermediate:
		return "Intermediate"
	case SkillSenior:
		return "Senior"
	default:
		return "Unknown"
	}
}

// Staff represents a production staff member.
// Invariant: the sum of a member's assigned hours on any single calendar
// day never exceeds MaxHoursPerDay.
type Staff struct {
	ID             StaffID
	Name           string
	SkillLevel     SkillLevel
	Specialization string
	HourlyRate     decimal.Decimal
	MaxHoursPerDay int
	Available      bool
}

// NewStaff creates a validated Staff member
func NewStaff(id StaffID, name, specialization string, level SkillLevel, hourlyRate decimal.Decimal, maxHoursPerDay int) (*Staff, error) {
	if id == "" {
		return nil, fmt.Errorf("staff ID cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("staff name cannot be empty")
	}
	if hourlyRate.IsNegative() {
		return nil, fmt.Errorf("hourly rate cannot be negative, got %s", hourlyRate)
	}
	if maxHoursPerDay <= 0 || maxHoursPerDay > 24 {
		return nil, fmt.Errorf("max hours per day must be in (0, 24], got %d", maxHoursPerDay)
	}

	return &Staff{
		ID:             id,
		Name:           name,
		SkillLevel:     level,
		Specialization: specialization,
		HourlyRate:     hourlyRate,
		MaxHoursPerDay: maxHoursPerDay,
		Available:      true,
	}, nil
}

// TaskType identifies the kind of work a task assignment covers
type TaskType string

const (
	TaskSetup      TaskType = "setup"
	TaskProduction TaskType = "production"
)

// TaskAssignment assigns a staff member to a task on a production schedule.
// Immutable once the schedule advances past the scheduled state, except for
// completion timestamps.
type TaskAssignment struct {
	ID          AssignmentID
	StaffID     StaffID
	ScheduleID  ScheduleID
	TaskType    TaskType
	Hours       int
	Start       time.Time
	End         time.Time
	Cost        decimal.Decimal
	CompletedAt *time.Time
}

// NewTaskAssignment creates a validated TaskAssignment with its cost
// computed as hours x rate
func NewTaskAssignment(id AssignmentID, staffID StaffID, scheduleID ScheduleID, taskType TaskType, hours int, start time.Time, rate decimal.Decimal) (*TaskAssignment, error) {
	if id == "" {
		return nil, fmt.Errorf("assignment ID cannot be empty")
	}
	if staffID == "" {
		return nil, fmt.Errorf("staff ID cannot be empty")
	}
	if scheduleID == "" {
		return nil, fmt.Errorf("schedule ID cannot be empty")
	}
	if hours <= 0 {
		return nil, fmt.Errorf("assigned hours must be positive, got %d", hours)
	}

	return &TaskAssignment{
		ID:         id,
		StaffID:    staffID,
		ScheduleID: scheduleID,
		TaskType:   taskType,
		Hours:      hours,
		Start:      start,
		End:        start.Add(time.Duration(hours) * time.Hour),
		Cost:       rate.Mul(decimal.NewFromInt(int64(hours))),
	}, nil
}
