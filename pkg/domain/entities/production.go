package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LineID uniquely identifies a production line
type LineID string

// ScheduleID uniquely identifies a production schedule entry
type ScheduleID string

// ProductionLine represents a production line with an hourly throughput capacity
type ProductionLine struct {
	ID              LineID
	Name            string
	CapacityPerHour Quantity
	Active          bool
	// OperatingCost is the fixed per-hour cost of running the line,
	// used as a cost proxy when staff are not yet attached.
	OperatingCost decimal.Decimal
}

// NewProductionLine creates a validated ProductionLine
func NewProductionLine(id LineID, name string, capacityPerHour Quantity, operatingCost decimal.Decimal) (*ProductionLine, error) {
	if id == "" {
		return nil, fmt.Errorf("line ID cannot be empty")
	}
	if capacityPerHour <= 0 {
		return nil, fmt.Errorf("capacity per hour must be positive, got %d", capacityPerHour)
	}
	if operatingCost.IsNegative() {
		return nil, fmt.Errorf("operating cost cannot be negative, got %s", operatingCost)
	}

	return &ProductionLine{
		ID:              id,
		Name:            name,
		CapacityPerHour: capacityPerHour,
		Active:          true,
		OperatingCost:   operatingCost,
	}, nil
}

// ScheduleStatus represents the execution state of a production schedule
type ScheduleStatus int

const (
	ScheduleScheduled ScheduleStatus = iota
	ScheduleInProgress
	ScheduleCompleted
)

// String method for ScheduleStatus enum
func (s ScheduleStatus) String() string {
	switch s {
	case ScheduleScheduled:
		return "Scheduled"
	case ScheduleInProgress:
		return "InProgress"
	case ScheduleCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// ProductionSchedule represents a committed or proposed time slot for an
// order on a production line.
// Invariant: no two schedules on the same line overlap in time.
type ProductionSchedule struct {
	ID       ScheduleID
	OrderID  OrderID
	LineID   LineID
	Start    time.Time
	End      time.Time
	Status   ScheduleStatus
	ActualAt *time.Time
}

// NewProductionSchedule creates a validated ProductionSchedule
func NewProductionSchedule(id ScheduleID, orderID OrderID, lineID LineID, start, end time.Time) (*ProductionSchedule, error) {
	if id == "" {
		return nil, fmt.Errorf("schedule ID cannot be empty")
	}
	if orderID == "" {
		return nil, fmt.Errorf("order ID cannot be empty")
	}
	if lineID == "" {
		return nil, fmt.Errorf("line ID cannot be empty")
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("schedule start %v must be before end %v", start, end)
	}

	return &ProductionSchedule{
		ID:      id,
		OrderID: orderID,
		LineID:  lineID,
		Start:   start,
		End:     end,
		Status:  ScheduleScheduled,
	}, nil
}

// Overlaps reports whether two schedules occupy intersecting time ranges.
// Touching endpoints do not count as overlap.
func (s *ProductionSchedule) Overlaps(other *ProductionSchedule) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// DurationHours returns the scheduled duration in whole hours
func (s *ProductionSchedule) DurationHours() int {
	return int(s.End.Sub(s.Start) / time.Hour)
}

// ProposedPlan carries the records an optimization run proposes for commit.
// Allocations map component IDs to the additional quantity to reserve.
type ProposedPlan struct {
	Schedules   []*ProductionSchedule
	Assignments []*TaskAssignment
	Allocations map[ComponentID]Quantity
}
