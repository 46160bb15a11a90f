package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/troikatech/planwise/pkg/domain/entities"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("entity not found")

// ErrVersionConflict is returned by CommitPlan when the store has advanced
// past the snapshot version the plan was computed against
var ErrVersionConflict = errors.New("store version conflict")

// Snapshot provides a consistent read view of planning data as of the
// moment it was taken. All reads against one snapshot observe the same
// store state, which makes concurrent feasibility checks safe and gives
// CommitPlan its optimistic-concurrency baseline.
type Snapshot interface {
	// Version identifies the store revision this snapshot was taken at
	Version() int64

	Order(ctx context.Context, id entities.OrderID) (*entities.Order, error)
	Product(ctx context.Context, id entities.ProductID) (*entities.Product, error)
	InventoryRecord(ctx context.Context, id entities.ComponentID) (*entities.InventoryRecord, error)

	// ActiveLines returns all active production lines sorted by ID
	ActiveLines(ctx context.Context) ([]*entities.ProductionLine, error)

	// SchedulesOverlapping returns non-completed schedules intersecting
	// [start, end], any line
	SchedulesOverlapping(ctx context.Context, start, end time.Time) ([]*entities.ProductionSchedule, error)

	// AvailableStaff returns the staff roster members marked available,
	// sorted by ID
	AvailableStaff(ctx context.Context) ([]*entities.Staff, error)

	// AssignmentsBetween returns committed task assignments whose interval
	// intersects [start, end], used to recompute per-day workloads
	AssignmentsBetween(ctx context.Context, start, end time.Time) ([]*entities.TaskAssignment, error)

	// ActiveRisks returns external risks whose window overlaps [start, end]
	ActiveRisks(ctx context.Context, start, end time.Time) ([]*entities.ExternalRisk, error)

	// SuppliersFor returns the suppliers that provide the given component
	SuppliersFor(ctx context.Context, id entities.ComponentID) ([]*entities.Supplier, error)

	// InboundShipments returns in-transit shipments carrying the component
	// with expected arrival on or before the given date
	InboundShipments(ctx context.Context, id entities.ComponentID, by time.Time) ([]*entities.Shipment, error)
}

// Store is the persistent collaborator the engine plans against. The engine
// owns no state: it reads a snapshot, computes, and proposes a plan that the
// store commits transactionally.
type Store interface {
	// Snapshot takes a consistent read view of the current store state
	Snapshot(ctx context.Context) (Snapshot, error)

	// CommitPlan transactionally persists a proposed plan. It fails with
	// ErrVersionConflict if the store version has moved past baseVersion
	// since the snapshot was taken; the caller is expected to re-plan
	// against a fresh snapshot and retry.
	CommitPlan(ctx context.Context, baseVersion int64, plan *entities.ProposedPlan) error

	// UpsertRisks replaces the externally sourced risk records, keyed by
	// risk ID. Used by the risk feed synchronizer.
	UpsertRisks(ctx context.Context, risks []*entities.ExternalRisk) error
}
