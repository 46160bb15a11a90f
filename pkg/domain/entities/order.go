package entities

import (
	"fmt"
	"time"
)

// OrderID uniquely identifies a customer order
type OrderID string

// CustomerID uniquely identifies a customer
type CustomerID string

// Quantity represents an integer quantity value for discrete manufacturing units
type Quantity int64

// OrderStatus represents the fulfillment state of an order
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderConfirmed
	OrderInProduction
	OrderShipped
	OrderDelivered
	OrderCancelled
)

// String method for OrderStatus enum
func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "Pending"
	case OrderConfirmed:
		return "Confirmed"
	case OrderInProduction:
		return "InProduction"
	case OrderShipped:
		return "Shipped"
	case OrderDelivered:
		return "Delivered"
	case OrderCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// OrderItem represents a single product line on an order
type OrderItem struct {
	ProductID ProductID
	Quantity  Quantity
}

// Order represents a customer order for one or more products.
// The item list is immutable once the order is confirmed.
type Order struct {
	ID                OrderID
	CustomerID        CustomerID
	Items             []OrderItem
	RequestedDelivery time.Time
	Status            OrderStatus
	CreatedAt         time.Time
}

// NewOrder creates a validated Order in the pending state
func NewOrder(id OrderID, customerID CustomerID, items []OrderItem, requestedDelivery time.Time) (*Order, error) {
	if id == "" {
		return nil, fmt.Errorf("order ID cannot be empty")
	}
	if customerID == "" {
		return nil, fmt.Errorf("customer ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}
	for _, item := range items {
		if item.ProductID == "" {
			return nil, fmt.Errorf("order item product ID cannot be empty")
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("order item quantity must be positive, got %d for product %s", item.Quantity, item.ProductID)
		}
	}

	return &Order{
		ID:                id,
		CustomerID:        customerID,
		Items:             items,
		RequestedDelivery: requestedDelivery,
		Status:            OrderPending,
		CreatedAt:         time.Now().UTC(),
	}, nil
}
