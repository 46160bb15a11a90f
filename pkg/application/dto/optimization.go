package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/troikatech/planwise/pkg/domain/entities"
)

// Objective selects what the schedule optimizer minimizes or maximizes
type Objective string

const (
	// ObjectiveTime minimizes the makespan across all orders
	ObjectiveTime Objective = "time"
	// ObjectiveCost minimizes total staffing/operating cost
	ObjectiveCost Objective = "cost"
	// ObjectiveUtilization balances load across production lines
	ObjectiveUtilization Objective = "utilization"
)

// ParseObjective validates an objective string
func ParseObjective(s string) (Objective, error) {
	switch Objective(s) {
	case ObjectiveTime, ObjectiveCost, ObjectiveUtilization:
		return Objective(s), nil
	default:
		return "", fmt.Errorf("unknown objective %q", s)
	}
}

// OptimizationStatus records which path produced the schedule
type OptimizationStatus string

const (
	StatusOptimal  OptimizationStatus = "OPTIMAL"
	StatusFeasible OptimizationStatus = "FEASIBLE"
	StatusFallback OptimizationStatus = "FALLBACK"
)

// OptimizationRequest asks the optimizer to place a batch of orders on
// production lines within a window
type OptimizationRequest struct {
	OrderIDs    []entities.OrderID `json:"order_ids"`
	WindowStart time.Time          `json:"window_start"`
	WindowEnd   time.Time          `json:"window_end"`
	Objective   Objective          `json:"objective"`
}

// UnschedulableOrder names an order that received no placement, with the
// reason it could not be placed
type UnschedulableOrder struct {
	OrderID entities.OrderID `json:"order_id"`
	Reason  string           `json:"reason"`
}

// UnderstaffedTask names a scheduled task no staff member could take
// without breaching a daily hour cap
type UnderstaffedTask struct {
	ScheduleID entities.ScheduleID `json:"schedule_id"`
	TaskType   entities.TaskType   `json:"task_type"`
	Hours      int                 `json:"hours"`
}

// OptimizationResult is the complete disposition of an optimization run.
// Every requested order appears either in Schedules or in Unschedulable.
type OptimizationResult struct {
	Schedules          []*entities.ProductionSchedule `json:"schedules"`
	StaffAssignments   []*entities.TaskAssignment     `json:"staff_assignments"`
	Unschedulable      []UnschedulableOrder           `json:"unschedulable"`
	Understaffed       []UnderstaffedTask             `json:"understaffed"`
	TotalMakespanHours int                            `json:"total_makespan_hours"`
	TotalCost          decimal.Decimal                `json:"total_cost"`
	Status             OptimizationStatus             `json:"status"`
}
