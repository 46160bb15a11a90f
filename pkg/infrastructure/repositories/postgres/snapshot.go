package postgres

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
)

// Snapshot loads the full planning dataset under a repeatable-read
// transaction, so every row is observed at the same store version. The
// planning dataset is master data sized, not transactional volume, so a
// full load per snapshot stays cheap.
func (s *Store) Snapshot(ctx context.Context) (repositories.Snapshot, error) {
	tx, err := s.readTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "begin snapshot transaction")
	}
	defer tx.Rollback(ctx)

	snap := &snapshot{
		orders:    make(map[entities.OrderID]entities.Order),
		products:  make(map[entities.ProductID]entities.Product),
		inventory: make(map[entities.ComponentID]entities.InventoryRecord),
		staff:     make(map[entities.StaffID]entities.Staff),
	}

	err = tx.QueryRow(ctx, `SELECT version FROM store_version WHERE id = 1`).Scan(&snap.version)
	if err != nil {
		return nil, errors.Wrap(err, "read store version")
	}

	loaders := []struct {
		name string
		load func() error
	}{
		{"products", func() error { return snap.loadProducts(ctx, tx) }},
		{"inventory", func() error { return snap.loadInventory(ctx, tx) }},
		{"orders", func() error { return snap.loadOrders(ctx, tx) }},
		{"lines", func() error { return snap.loadLines(ctx, tx) }},
		{"schedules", func() error { return snap.loadSchedules(ctx, tx) }},
		{"staff", func() error { return snap.loadStaff(ctx, tx) }},
		{"assignments", func() error { return snap.loadAssignments(ctx, tx) }},
		{"risks", func() error { return snap.loadRisks(ctx, tx) }},
		{"suppliers", func() error { return snap.loadSuppliers(ctx, tx) }},
		{"shipments", func() error { return snap.loadShipments(ctx, tx) }},
	}
	for _, loader := range loaders {
		if err := loader.load(); err != nil {
			return nil, errors.Wrapf(err, "load %s", loader.name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "close snapshot transaction")
	}
	return snap, nil
}

// queryable is the subset of pgx.Tx the snapshot loaders use
type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
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

func (sn *snapshot) loadProducts(ctx context.Context, tx queryable) error {
	bom := make(map[entities.ProductID][]entities.BOMLine)
	rows, err := tx.Query(ctx, `SELECT product_id, component_id, qty_per_unit FROM bom_lines`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var productID, componentID string
		var qty int64
		if err := rows.Scan(&productID, &componentID, &qty); err != nil {
			return err
		}
		bom[entities.ProductID(productID)] = append(bom[entities.ProductID(productID)], entities.BOMLine{
			ComponentID: entities.ComponentID(componentID),
			QtyPerUnit:  entities.Quantity(qty),
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = tx.Query(ctx, `SELECT id, name, sku, hours_per_unit FROM products`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name, sku string
		var hoursPerUnit float64
		if err := rows.Scan(&id, &name, &sku, &hoursPerUnit); err != nil {
			return err
		}
		productID := entities.ProductID(id)
		sn.products[productID] = entities.Product{
			ID:           productID,
			Name:         name,
			SKU:          sku,
			HoursPerUnit: hoursPerUnit,
			BOM:          bom[productID],
		}
	}
	return rows.Err()
}

func (sn *snapshot) loadInventory(ctx context.Context, tx queryable) error {
	rows, err := tx.Query(ctx, `SELECT component_id, on_hand, allocated, reorder_threshold, location FROM inventory_records`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, location string
		var onHand, allocated, threshold int64
		if err := rows.Scan(&id, &onHand, &allocated, &threshold, &location); err != nil {
			return err
		}
		componentID := entities.ComponentID(id)
		sn.inventory[componentID] = entities.InventoryRecord{
			ComponentID:      componentID,
			OnHand:           entities.Quantity(onHand),
			Allocated:        entities.Quantity(allocated),
			ReorderThreshold: entities.Quantity(threshold),
			Location:         location,
		}
	}
	return rows.Err()
}

func (sn *snapshot) loadOrders(ctx context.Context, tx queryable) error {
	items := make(map[entities.OrderID][]entities.OrderItem)
	rows, err := tx.Query(ctx, `SELECT order_id, product_id, quantity FROM order_items`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID, productID string
		var qty int64
		if err := rows.Scan(&orderID, &productID, &qty); err != nil {
			return err
		}
		items[entities.OrderID(orderID)] = append(items[entities.OrderID(orderID)], entities.OrderItem{
			ProductID: entities.ProductID(productID),
			Quantity:  entities.Quantity(qty),
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = tx.Query(ctx, `SELECT id, customer_id, requested_delivery, status, created_at FROM orders`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, customerID string
		var requested, created time.Time
		var status int
		if err := rows.Scan(&id, &customerID, &requested, &status, &created); err != nil {
			return err
		}
		orderID := entities.OrderID(id)
		sn.orders[orderID] = entities.Order{
			ID:                orderID,
			CustomerID:        entities.CustomerID(customerID),
			Items:             items[orderID],
			RequestedDelivery: requested,
			Status:            entities.OrderStatus(status),
			CreatedAt:         created,
		}
	}
	return rows.Err()
}

func (sn *snapshot) loadLines(ctx context.Context, tx queryable) error {
	rows, err := tx.Query(ctx, `SELECT id, name, capacity_per_hour, operating_cost::text, active FROM production_lines ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name, cost string
		var capacity int64
		var active bool
		if err := rows.Scan(&id, &name, &capacity, &cost, &active); err != nil {
			return err
		}
		operatingCost, err := decimal.NewFromString(cost)
		if err != nil {
			return errors.Wrapf(err, "parse operating cost for line %s", id)
		}
		sn.lines = append(sn.lines, &entities.ProductionLine{
			ID:              entities.LineID(id),
			Name:            name,
			CapacityPerHour: entities.Quantity(capacity),
			Active:          active,
			OperatingCost:   operatingCost,
		})
	}
	return rows.Err()
}

func (sn *snapshot) loadSchedules(ctx context.Context, tx queryable) error {
	rows, err := tx.Query(ctx, `SELECT id, order_id, line_id, start_at, end_at, status FROM production_schedules`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, orderID, lineID string
		var start, end time.Time
		var status int
		if err := rows.Scan(&id, &orderID, &lineID, &start, &end, &status); err != nil {
			return err
		}
		sn.schedules = append(sn.schedules, &entities.ProductionSchedule{
			ID:      entities.ScheduleID(id),
			OrderID: entities.OrderID(orderID),
			LineID:  entities.LineID(lineID),
			Start:   start,
			End:     end,
			Status:  entities.ScheduleStatus(status),
		})
	}
	return rows.Err()
}

func (sn *snapshot) loadStaff(ctx context.Context, tx queryable) error {
	rows, err := tx.Query(ctx, `SELECT id, name, specialization, skill_level, hourly_rate::text, max_hours_per_day, available FROM staff`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name, specialization, rate string
		var level, maxHours int
		var available bool
		if err := rows.Scan(&id, &name, &specialization, &level, &rate, &maxHours, &available); err != nil {
			return err
		}
		hourlyRate, err := decimal.NewFromString(rate)
		if err != nil {
			return errors.Wrapf(err, "parse hourly rate for staff %s", id)
		}
		staffID := entities.StaffID(id)
		sn.staff[staffID] = entities.Staff{
			ID:             staffID,
			Name:           name,
			SkillLevel:     entities.SkillLevel(level),
			Specialization: specialization,
			HourlyRate:     hourlyRate,
			MaxHoursPerDay: maxHours,
			Available:      available,
		}
	}
	return rows.Err()
}

func (sn *snapshot) loadAssignments(ctx context.Context, tx queryable) error {
	rows, err := tx.Query(ctx, `SELECT id, staff_id, schedule_id, task_type, hours, start_at, end_at, cost::text, completed_at FROM task_assignments`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, staffID, scheduleID, taskType, cost string
		var hours int
		var start, end time.Time
		var completedAt *time.Time
		if err := rows.Scan(&id, &staffID, &scheduleID, &taskType, &hours, &start, &end, &cost, &completedAt); err != nil {
			return err
		}
		assignmentCost, err := decimal.NewFromString(cost)
		if err != nil {
			return errors.Wrapf(err, "parse cost for assignment %s", id)
		}
		sn.assignments = append(sn.assignments, &entities.TaskAssignment{
			ID:          entities.AssignmentID(id),
			StaffID:     entities.StaffID(staffID),
			ScheduleID:  entities.ScheduleID(scheduleID),
			TaskType:    entities.TaskType(taskType),
			Hours:       hours,
			Start:       start,
			End:         end,
			Cost:        assignmentCost,
			CompletedAt: completedAt,
		})
	}
	return rows.Err()
}

func (sn *snapshot) loadRisks(ctx context.Context, tx queryable) error {
	rows, err := tx.Query(ctx, `SELECT id, type, region, description, severity, affected_components, affected_suppliers, window_start, window_end FROM external_risks ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, riskType, region, description string
		var severity int
		var components, suppliers []string
		var windowStart time.Time
		var windowEnd *time.Time
		if err := rows.Scan(&id, &riskType, &region, &description, &severity, &components, &suppliers, &windowStart, &windowEnd); err != nil {
			return err
		}
		risk := &entities.ExternalRisk{
			ID:          entities.RiskID(id),
			Type:        entities.RiskType(riskType),
			Region:      region,
			Description: description,
			Severity:    entities.RiskSeverity(severity),
			WindowStart: windowStart,
		}
		if windowEnd != nil {
			risk.WindowEnd = *windowEnd
		}
		for _, component := range components {
			risk.AffectedComponents = append(risk.AffectedComponents, entities.ComponentID(component))
		}
		for _, supplier := range suppliers {
			risk.AffectedSuppliers = append(risk.AffectedSuppliers, entities.SupplierID(supplier))
		}
		sn.risks = append(sn.risks, risk)
	}
	return rows.Err()
}

func (sn *snapshot) loadSuppliers(ctx context.Context, tx queryable) error {
	components := make(map[entities.SupplierID][]entities.ComponentID)
	rows, err := tx.Query(ctx, `SELECT supplier_id, component_id FROM supplier_components`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var supplierID, componentID string
		if err := rows.Scan(&supplierID, &componentID); err != nil {
			return err
		}
		components[entities.SupplierID(supplierID)] = append(components[entities.SupplierID(supplierID)], entities.ComponentID(componentID))
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = tx.Query(ctx, `SELECT id, name, region FROM suppliers ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name, region string
		if err := rows.Scan(&id, &name, &region); err != nil {
			return err
		}
		supplierID := entities.SupplierID(id)
		sn.suppliers = append(sn.suppliers, &entities.Supplier{
			ID:         supplierID,
			Name:       name,
			Region:     region,
			Components: components[supplierID],
		})
	}
	return rows.Err()
}

func (sn *snapshot) loadShipments(ctx context.Context, tx queryable) error {
	items := make(map[entities.ShipmentID][]entities.ShipmentItem)
	rows, err := tx.Query(ctx, `SELECT shipment_id, component_id, quantity FROM shipment_items`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var shipmentID, componentID string
		var qty int64
		if err := rows.Scan(&shipmentID, &componentID, &qty); err != nil {
			return err
		}
		items[entities.ShipmentID(shipmentID)] = append(items[entities.ShipmentID(shipmentID)], entities.ShipmentItem{
			ComponentID: entities.ComponentID(componentID),
			Quantity:    entities.Quantity(qty),
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = tx.Query(ctx, `SELECT id, supplier_id, expected_arrival, actual_arrival, status FROM shipments ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, supplierID string
		var expected time.Time
		var actual *time.Time
		var status int
		if err := rows.Scan(&id, &supplierID, &expected, &actual, &status); err != nil {
			return err
		}
		shipmentID := entities.ShipmentID(id)
		sn.shipments = append(sn.shipments, &entities.Shipment{
			ID:              shipmentID,
			SupplierID:      entities.SupplierID(supplierID),
			ExpectedArrival: expected,
			ActualArrival:   actual,
			Status:          entities.ShipmentStatus(status),
			Items:           items[shipmentID],
		})
	}
	return rows.Err()
}

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
