package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
)

// Store provides an in-memory implementation of the planning store with
// snapshot isolation and optimistic concurrency. Every write advances the
// store version; snapshots copy state under the read lock so concurrent
// feasibility checks observe a stable view.
type Store struct {
	mu      sync.RWMutex
	version int64

	orders      map[entities.OrderID]*entities.Order
	products    map[entities.ProductID]*entities.Product
	inventory   map[entities.ComponentID]*entities.InventoryRecord
	lines       []*entities.ProductionLine
	schedules   []*entities.ProductionSchedule
	staff       map[entities.StaffID]*entities.Staff
	assignments []*entities.TaskAssignment
	risks       map[entities.RiskID]*entities.ExternalRisk
	suppliers   map[entities.SupplierID]*entities.Supplier
	shipments   []*entities.Shipment
}

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		orders:    make(map[entities.OrderID]*entities.Order),
		products:  make(map[entities.ProductID]*entities.Product),
		inventory: make(map[entities.ComponentID]*entities.InventoryRecord),
		staff:     make(map[entities.StaffID]*entities.Staff),
		risks:     make(map[entities.RiskID]*entities.ExternalRisk),
		suppliers: make(map[entities.SupplierID]*entities.Supplier),
	}
}

// AddOrder loads an order into the store
func (s *Store) AddOrder(order *entities.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	s.version++
}

// AddProduct loads a product into the store
func (s *Store) AddProduct(product *entities.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
	s.version++
}

// AddInventoryRecord loads an inventory record into the store
func (s *Store) AddInventoryRecord(record *entities.InventoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inventory[record.ComponentID] = record
	s.version++
}

// AddLine loads a production line into the store
func (s *Store) AddLine(line *entities.ProductionLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	sort.Slice(s.lines, func(i, j int) bool { return s.lines[i].ID < s.lines[j].ID })
	s.version++
}

// AddSchedule loads an existing production schedule into the store
func (s *Store) AddSchedule(schedule *entities.ProductionSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, schedule)
	s.version++
}

// AddStaff loads a staff member into the store
func (s *Store) AddStaff(member *entities.Staff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[member.ID] = member
	s.version++
}

// AddAssignment loads a committed task assignment into the store
func (s *Store) AddAssignment(assignment *entities.TaskAssignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, assignment)
	s.version++
}

// AddSupplier loads a supplier into the store
func (s *Store) AddSupplier(supplier *entities.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[supplier.ID] = supplier
	s.version++
}

// AddShipment loads an inbound shipment into the store
func (s *Store) AddShipment(shipment *entities.Shipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shipments = append(s.shipments, shipment)
	s.version++
}

// UpsertRisks replaces externally sourced risk records keyed by ID
func (s *Store) UpsertRisks(ctx context.Context, risks []*entities.ExternalRisk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, risk := range risks {
		s.risks[risk.ID] = risk
	}
	s.version++
	return nil
}

// Snapshot copies the current store state into a consistent read view
func (s *Store) Snapshot(ctx context.Context) (repositories.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &snapshot{
		version:   s.version,
		orders:    make(map[entities.OrderID]entities.Order, len(s.orders)),
		products:  make(map[entities.ProductID]entities.Product, len(s.products)),
		inventory: make(map[entities.ComponentID]entities.InventoryRecord, len(s.inventory)),
		staff:     make(map[entities.StaffID]entities.Staff, len(s.staff)),
	}
	for id, order := range s.orders {
		snap.orders[id] = *order
	}
	for id, product := range s.products {
		snap.products[id] = *product
	}
	for id, record := range s.inventory {
		snap.inventory[id] = *record
	}
	for id, member := range s.staff {
		snap.staff[id] = *member
	}
	for _, line := range s.lines {
		copied := *line
		snap.lines = append(snap.lines, &copied)
	}
	for _, sched := range s.schedules {
		copied := *sched
		snap.schedules = append(snap.schedules, &copied)
	}
	for _, assignment := range s.assignments {
		copied := *assignment
		snap.assignments = append(snap.assignments, &copied)
	}
	for _, risk := range s.risks {
		copied := *risk
		snap.risks = append(snap.risks, &copied)
	}
	sort.Slice(snap.risks, func(i, j int) bool { return snap.risks[i].ID < snap.risks[j].ID })
	for _, supplier := range s.suppliers {
		copied := *supplier
		snap.suppliers = append(snap.suppliers, &copied)
	}
	sort.Slice(snap.suppliers, func(i, j int) bool { return snap.suppliers[i].ID < snap.suppliers[j].ID })
	for _, shipment := range s.shipments {
		copied := *shipment
		snap.shipments = append(snap.shipments, &copied)
	}

	return snap, nil
}

// CommitPlan transactionally persists a proposed plan under an optimistic
// version check
func (s *Store) CommitPlan(ctx context.Context, baseVersion int64, plan *entities.ProposedPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != baseVersion {
		return errors.Wrapf(repositories.ErrVersionConflict, "store at version %d, plan computed at %d", s.version, baseVersion)
	}

	// No two non-completed schedules may overlap on the same line
	for _, proposed := range plan.Schedules {
		for _, existing := range s.schedules {
			if existing.LineID == proposed.LineID && existing.Status != entities.ScheduleCompleted && existing.Overlaps(proposed) {
				return errors.Wrapf(repositories.ErrVersionConflict,
					"schedule %s overlaps existing %s on line %s", proposed.ID, existing.ID, proposed.LineID)
			}
		}
	}

	for componentID, qty := range plan.Allocations {
		record, ok := s.inventory[componentID]
		if !ok {
			return errors.Wrapf(repositories.ErrNotFound, "inventory record for %s", componentID)
		}
		if err := record.Allocate(qty); err != nil {
			return errors.Wrap(err, "allocate inventory")
		}
	}

	s.schedules = append(s.schedules, plan.Schedules...)
	s.assignments = append(s.assignments, plan.Assignments...)
	s.version++
	return nil
}

// snapshot is an immutable copy of store state at a version
type snapshot struct {
	version     int64
	orders      map[entities.OrderID]entities.Order
	products    map[entities.ProductID]entities.Product
	inventory   map[entities.ComponentID]entities.InventoryRecord
	lines       []*entities.ProductionLine
	schedules   []*entities.ProductionSchedule
	staff       map[entities.StaffID]entities.Staff
	assignments []*entities.TaskAssignment
	risks       []*entities.ExternalRisk
	suppliers   []*entities.Supplier
	shipments   []*entities.Shipment
}

// Verify interface compliance
var _ repositories.Snapshot = (*snapshot)(nil)

func (sn *snapshot) Version() int64 { return sn.version }

func (sn *snapshot) Order(ctx context.Context, id entities.OrderID) (*entities.Order, error) {
	order, ok := sn.orders[id]
	if !ok {
		return nil, errors.Wrapf(repositories.ErrNotFound, "order %s", id)
	}
	return &order, nil
}

func (sn *snapshot) Product(ctx context.Context, id entities.ProductID) (*entities.Product, error) {
	product, ok := sn.products[id]
	if !ok {
		return nil, errors.Wrapf(repositories.ErrNotFound, "product %s", id)
	}
	return &product, nil
}

func (sn *snapshot) InventoryRecord(ctx context.Context, id entities.ComponentID) (*entities.InventoryRecord, error) {
	record, ok := sn.inventory[id]
	if !ok {
		return nil, errors.Wrapf(repositories.ErrNotFound, "inventory record for %s", id)
	}
	return &record, nil
}

func (sn *snapshot) ActiveLines(ctx context.Context) ([]*entities.ProductionLine, error) {
	var active []*entities.ProductionLine
	for _, line := range sn.lines {
		if line.Active {
			active = append(active, line)
		}
	}
	return active, nil
}

func (sn *snapshot) SchedulesOverlapping(ctx context.Context, start, end time.Time) ([]*entities.ProductionSchedule, error) {
	var overlapping []*entities.ProductionSchedule
	for _, sched := range sn.schedules {
		if sched.Status == entities.ScheduleCompleted {
			continue
		}
		if sched.Start.Before(end) && start.Before(sched.End) {
			overlapping = append(overlapping, sched)
		}
	}
	sort.Slice(overlapping, func(i, j int) bool { return overlapping[i].ID < overlapping[j].ID })
	return overlapping, nil
}

func (sn *snapshot) AvailableStaff(ctx context.Context) ([]*entities.Staff, error) {
	var available []*entities.Staff
	for id := range sn.staff {
		member := sn.staff[id]
		if member.Available {
			available = append(available, &member)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i].ID < available[j].ID })
	return available, nil
}

func (sn *snapshot) AssignmentsBetween(ctx context.Context, start, end time.Time) ([]*entities.TaskAssignment, error) {
	var within []*entities.TaskAssignment
	for _, assignment := range sn.assignments {
		if assignment.Start.Before(end) && start.Before(assignment.End) {
			within = append(within, assignment)
		}
	}
	return within, nil
}

func (sn *snapshot) ActiveRisks(ctx context.Context, start, end time.Time) ([]*entities.ExternalRisk, error) {
	var active []*entities.ExternalRisk
	for _, risk := range sn.risks {
		if risk.ActiveDuring(start, end) {
			active = append(active, risk)
		}
	}
	return active, nil
}

func (sn *snapshot) SuppliersFor(ctx context.Context, id entities.ComponentID) ([]*entities.Supplier, error) {
	var matched []*entities.Supplier
	for _, supplier := range sn.suppliers {
		for _, componentID := range supplier.Components {
			if componentID == id {
				matched = append(matched, supplier)
				break
			}
		}
	}
	return matched, nil
}

func (sn *snapshot) InboundShipments(ctx context.Context, id entities.ComponentID, by time.Time) ([]*entities.Shipment, error) {
	var inbound []*entities.Shipment
	for _, shipment := range sn.shipments {
		if shipment.Status != entities.ShipmentInTransit {
			continue
		}
		if shipment.ExpectedArrival.After(by) {
			continue
		}
		if shipment.QuantityOf(id) > 0 {
			inbound = append(inbound, shipment)
		}
	}
	sort.Slice(inbound, func(i, j int) bool { return inbound[i].ID < inbound[j].ID })
	return inbound, nil
}
