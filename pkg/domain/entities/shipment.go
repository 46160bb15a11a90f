package entities

import (
	"fmt"
	"time"
)

// SupplierID uniquely identifies a supplier
type SupplierID string

// ShipmentID uniquely identifies an inbound shipment
type ShipmentID string

// Supplier represents a component supplier in a geographic region
type Supplier struct {
	ID         SupplierID
	Name       string
	Region     string
	Components []ComponentID
}

// ShipmentStatus represents the state of an inbound shipment
type ShipmentStatus int

const (
	ShipmentInTransit ShipmentStatus = iota
	ShipmentDelivered
	ShipmentCancelled
)

// String method for ShipmentStatus enum
func (s ShipmentStatus) String() string {
	switch s {
	case ShipmentInTransit:
		return "InTransit"
	case ShipmentDelivered:
		return "Delivered"
	case ShipmentCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ShipmentItem represents a component quantity on an inbound shipment
type ShipmentItem struct {
	ComponentID ComponentID
	Quantity    Quantity
}

// Shipment represents an inbound component shipment from a supplier
type Shipment struct {
	ID              ShipmentID
	SupplierID      SupplierID
	ExpectedArrival time.Time
	ActualArrival   *time.Time
	Status          ShipmentStatus
	Items           []ShipmentItem
}

// NewShipment creates a validated Shipment in transit
func NewShipment(id ShipmentID, supplierID SupplierID, expectedArrival time.Time, items []ShipmentItem) (*Shipment, error) {
	if id == "" {
		return nil, fmt.Errorf("shipment ID cannot be empty")
	}
	if supplierID == "" {
		return nil, fmt.Errorf("supplier ID cannot be empty")
	}
	for _, item := range items {
		if item.ComponentID == "" {
			return nil, fmt.Errorf("shipment item component ID cannot be empty")
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("shipment item quantity must be positive, got %d for component %s", item.Quantity, item.ComponentID)
		}
	}

	return &Shipment{
		ID:              id,
		SupplierID:      supplierID,
		ExpectedArrival: expectedArrival,
		Status:          ShipmentInTransit,
		Items:           items,
	}, nil
}

// QuantityOf returns the shipped quantity of the given component
func (s *Shipment) QuantityOf(componentID ComponentID) Quantity {
	var total Quantity
	for _, item := range s.Items {
		if item.ComponentID == componentID {
			total += item.Quantity
		}
	}
	return total
}
