// Package csv loads planning fixtures from CSV files into the store.
// Intended for local development and demo scenarios; production deployments
// use the postgres store.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/infrastructure/repositories/memory"
)

const dateLayout = "2006-01-02"

// Loader handles loading planning data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDirectory seeds a memory store from the fixture files in dir.
// products.csv, inventory.csv, lines.csv and orders.csv are required;
// bom.csv, staff.csv, suppliers.csv and shipments.csv are optional.
func (l *Loader) LoadDirectory(dir string, store *memory.Store) error {
	bom := map[entities.ProductID][]entities.BOMLine{}
	if exists(filepath.Join(dir, "bom.csv")) {
		loaded, err := l.LoadBOM(filepath.Join(dir, "bom.csv"))
		if err != nil {
			return err
		}
		bom = loaded
	}

	products, err := l.LoadProducts(filepath.Join(dir, "products.csv"), bom)
	if err != nil {
		return err
	}
	for _, product := range products {
		store.AddProduct(product)
	}

	records, err := l.LoadInventory(filepath.Join(dir, "inventory.csv"))
	if err != nil {
		return err
	}
	for _, record := range records {
		store.AddInventoryRecord(record)
	}

	lines, err := l.LoadLines(filepath.Join(dir, "lines.csv"))
	if err != nil {
		return err
	}
	for _, line := range lines {
		store.AddLine(line)
	}

	orders, err := l.LoadOrders(filepath.Join(dir, "orders.csv"))
	if err != nil {
		return err
	}
	for _, order := range orders {
		store.AddOrder(order)
	}

	if exists(filepath.Join(dir, "staff.csv")) {
		staff, err := l.LoadStaff(filepath.Join(dir, "staff.csv"))
		if err != nil {
			return err
		}
		for _, member := range staff {
			store.AddStaff(member)
		}
	}

	if exists(filepath.Join(dir, "suppliers.csv")) {
		suppliers, err := l.LoadSuppliers(filepath.Join(dir, "suppliers.csv"))
		if err != nil {
			return err
		}
		for _, supplier := range suppliers {
			store.AddSupplier(supplier)
		}
	}

	if exists(filepath.Join(dir, "shipments.csv")) {
		shipments, err := l.LoadShipments(filepath.Join(dir, "shipments.csv"))
		if err != nil {
			return err
		}
		for _, shipment := range shipments {
			store.AddShipment(shipment)
		}
	}

	return nil
}

// LoadProducts loads products from a CSV file, attaching BOM lines by
// product ID
func (l *Loader) LoadProducts(filename string, bom map[entities.ProductID][]entities.BOMLine) ([]*entities.Product, error) {
	records, err := readAll(filename, []string{"product_id", "name", "sku", "hours_per_unit"})
	if err != nil {
		return nil, err
	}

	var products []*entities.Product
	for i, record := range records {
		hoursPerUnit, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: invalid hours_per_unit: %s", i+2, record[3])
		}
		productID := entities.ProductID(record[0])
		product, err := entities.NewProduct(productID, record[1], record[2], hoursPerUnit, bom[productID])
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// LoadBOM loads bill-of-materials lines grouped by product ID
func (l *Loader) LoadBOM(filename string) (map[entities.ProductID][]entities.BOMLine, error) {
	records, err := readAll(filename, []string{"product_id", "component_id", "qty_per_unit"})
	if err != nil {
		return nil, err
	}

	bom := make(map[entities.ProductID][]entities.BOMLine)
	for i, record := range records {
		qty, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bom CSV row %d: invalid qty_per_unit: %s", i+2, record[2])
		}
		productID := entities.ProductID(record[0])
		bom[productID] = append(bom[productID], entities.BOMLine{
			ComponentID: entities.ComponentID(record[1]),
			QtyPerUnit:  entities.Quantity(qty),
		})
	}
	return bom, nil
}

// LoadInventory loads inventory records from a CSV file
func (l *Loader) LoadInventory(filename string) ([]*entities.InventoryRecord, error) {
	records, err := readAll(filename, []string{"component_id", "on_hand", "allocated", "reorder_threshold", "location"})
	if err != nil {
		return nil, err
	}

	var inventory []*entities.InventoryRecord
	for i, record := range records {
		onHand, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: invalid on_hand: %s", i+2, record[1])
		}
		allocated, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: invalid allocated: %s", i+2, record[2])
		}
		threshold, err := strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: invalid reorder_threshold: %s", i+2, record[3])
		}
		inv, err := entities.NewInventoryRecord(entities.ComponentID(record[0]),
			entities.Quantity(onHand), entities.Quantity(allocated), entities.Quantity(threshold), record[4])
		if err != nil {
			return nil, fmt.Errorf("inventory CSV row %d: %w", i+2, err)
		}
		inventory = append(inventory, inv)
	}
	return inventory, nil
}

// LoadLines loads production lines from a CSV file
func (l *Loader) LoadLines(filename string) ([]*entities.ProductionLine, error) {
	records, err := readAll(filename, []string{"line_id", "name", "capacity_per_hour", "operating_cost", "active"})
	if err != nil {
		return nil, err
	}

	var lines []*entities.ProductionLine
	for i, record := range records {
		capacity, err := strconv.ParseInt(record[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("lines CSV row %d: invalid capacity_per_hour: %s", i+2, record[2])
		}
		cost, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("lines CSV row %d: invalid operating_cost: %s", i+2, record[3])
		}
		active, err := strconv.ParseBool(record[4])
		if err != nil {
			return nil, fmt.Errorf("lines CSV row %d: invalid active flag: %s", i+2, record[4])
		}
		line, err := entities.NewProductionLine(entities.LineID(record[0]), record[1], entities.Quantity(capacity), cost)
		if err != nil {
			return nil, fmt.Errorf("lines CSV row %d: %w", i+2, err)
		}
		line.Active = active
		lines = append(lines, line)
	}
	return lines, nil
}

// LoadOrders loads orders from a CSV file. Orders with multiple items span
// multiple rows sharing an order ID; item rows must be contiguous.
func (l *Loader) LoadOrders(filename string) ([]*entities.Order, error) {
	records, err := readAll(filename, []string{"order_id", "customer_id", "product_id", "quantity", "requested_delivery"})
	if err != nil {
		return nil, err
	}

	type pending struct {
		customerID entities.CustomerID
		items      []entities.OrderItem
		requested  time.Time
	}
	grouped := make(map[entities.OrderID]*pending)
	var orderIDs []entities.OrderID

	for i, record := range records {
		qty, err := strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: invalid quantity: %s", i+2, record[3])
		}
		requested, err := time.Parse(dateLayout, record[4])
		if err != nil {
			return nil, fmt.Errorf("orders CSV row %d: invalid requested_delivery: %s (expected YYYY-MM-DD)", i+2, record[4])
		}

		orderID := entities.OrderID(record[0])
		entry, ok := grouped[orderID]
		if !ok {
			entry = &pending{customerID: entities.CustomerID(record[1]), requested: requested}
			grouped[orderID] = entry
			orderIDs = append(orderIDs, orderID)
		}
		entry.items = append(entry.items, entities.OrderItem{
			ProductID: entities.ProductID(record[2]),
			Quantity:  entities.Quantity(qty),
		})
	}

	var orders []*entities.Order
	for _, orderID := range orderIDs {
		entry := grouped[orderID]
		order, err := entities.NewOrder(orderID, entry.customerID, entry.items, entry.requested)
		if err != nil {
			return nil, fmt.Errorf("orders CSV: order %s: %w", orderID, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// LoadStaff loads staff members from a CSV file
func (l *Loader) LoadStaff(filename string) ([]*entities.Staff, error) {
	records, err := readAll(filename, []string{"staff_id", "name", "specialization", "skill_level", "hourly_rate", "max_hours_per_day"})
	if err != nil {
		return nil, err
	}

	var staff []*entities.Staff
	for i, record := range records {
		level, err := parseSkillLevel(record[3])
		if err != nil {
			return nil, fmt.Errorf("staff CSV row %d: %w", i+2, err)
		}
		rate, err := decimal.NewFromString(record[4])
		if err != nil {
			return nil, fmt.Errorf("staff CSV row %d: invalid hourly_rate: %s", i+2, record[4])
		}
		maxHours, err := strconv.Atoi(record[5])
		if err != nil {
			return nil, fmt.Errorf("staff CSV row %d: invalid max_hours_per_day: %s", i+2, record[5])
		}
		member, err := entities.NewStaff(entities.StaffID(record[0]), record[1], record[2], level, rate, maxHours)
		if err != nil {
			return nil, fmt.Errorf("staff CSV row %d: %w", i+2, err)
		}
		staff = append(staff, member)
	}
	return staff, nil
}

// LoadSuppliers loads suppliers from a CSV file. Components are a
// semicolon-separated list.
func (l *Loader) LoadSuppliers(filename string) ([]*entities.Supplier, error) {
	records, err := readAll(filename, []string{"supplier_id", "name", "region", "components"})
	if err != nil {
		return nil, err
	}

	var suppliers []*entities.Supplier
	for _, record := range records {
		supplier := &entities.Supplier{
			ID:     entities.SupplierID(record[0]),
			Name:   record[1],
			Region: record[2],
		}
		for _, component := range strings.Split(record[3], ";") {
			component = strings.TrimSpace(component)
			if component != "" {
				supplier.Components = append(supplier.Components, entities.ComponentID(component))
			}
		}
		suppliers = append(suppliers, supplier)
	}
	return suppliers, nil
}

// LoadShipments loads inbound shipments from a CSV file. Shipments with
// multiple items span multiple rows sharing a shipment ID.
func (l *Loader) LoadShipments(filename string) ([]*entities.Shipment, error) {
	records, err := readAll(filename, []string{"shipment_id", "supplier_id", "component_id", "quantity", "expected_arrival"})
	if err != nil {
		return nil, err
	}

	type pending struct {
		supplierID entities.SupplierID
		items      []entities.ShipmentItem
		expected   time.Time
	}
	grouped := make(map[entities.ShipmentID]*pending)
	var shipmentIDs []entities.ShipmentID

	for i, record := range records {
		qty, err := strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("shipments CSV row %d: invalid quantity: %s", i+2, record[3])
		}
		expected, err := time.Parse(dateLayout, record[4])
		if err != nil {
			return nil, fmt.Errorf("shipments CSV row %d: invalid expected_arrival: %s (expected YYYY-MM-DD)", i+2, record[4])
		}

		shipmentID := entities.ShipmentID(record[0])
		entry, ok := grouped[shipmentID]
		if !ok {
			entry = &pending{supplierID: entities.SupplierID(record[1]), expected: expected}
			grouped[shipmentID] = entry
			shipmentIDs = append(shipmentIDs, shipmentID)
		}
		entry.items = append(entry.items, entities.ShipmentItem{
			ComponentID: entities.ComponentID(record[2]),
			Quantity:    entities.Quantity(qty),
		})
	}

	var shipments []*entities.Shipment
	for _, shipmentID := range shipmentIDs {
		entry := grouped[shipmentID]
		shipment, err := entities.NewShipment(shipmentID, entry.supplierID, entry.expected, entry.items)
		if err != nil {
			return nil, fmt.Errorf("shipments CSV: shipment %s: %w", shipmentID, err)
		}
		shipments = append(shipments, shipment)
	}
	return shipments, nil
}

// readAll opens a CSV file, validates its header, and returns the data rows
func readAll(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have a header and at least one data row", filename)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", filename, expectedHeader, records[0])
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", filename, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}
	return true
}

func parseSkillLevel(s string) (entities.SkillLevel, error) {
	switch strings.ToLower(s) {
	case "junior":
		return entities.SkillJunior, nil
	case "intermediate":
		return entities.SkillIntermediate, nil
	case "senior":
		return entities.SkillSenior, nil
	default:
		return entities.SkillJunior, fmt.Errorf("invalid skill_level: %s (expected: Junior, Intermediate, or Senior)", s)
	}
}

func exists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
