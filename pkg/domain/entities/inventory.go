package entities

import "fmt"

// ComponentID uniquely identifies a purchasable component
type ComponentID string

// Component represents a purchasable component used to build products
type Component struct {
	ID   ComponentID
	Name string
	SKU  string
}

// InventoryRecord tracks on-hand and allocated stock for a component.
// Invariant: 0 <= Allocated <= OnHand.
type InventoryRecord struct {
	ComponentID      ComponentID
	OnHand           Quantity
	Allocated        Quantity
	ReorderThreshold Quantity
	Location         string
}

// NewInventoryRecord creates a validated InventoryRecord
func NewInventoryRecord(componentID ComponentID, onHand, allocated, reorderThreshold Quantity, location string) (*InventoryRecord, error) {
	if componentID == "" {
		return nil, fmt.Errorf("component ID cannot be empty")
	}
	if onHand < 0 {
		return nil, fmt.Errorf("on-hand quantity cannot be negative, got %d", onHand)
	}
	if allocated < 0 {
		return nil, fmt.Errorf("allocated quantity cannot be negative, got %d", allocated)
	}
	if allocated > onHand {
		return nil, fmt.Errorf("allocated quantity %d cannot exceed on-hand quantity %d", allocated, onHand)
	}

	return &InventoryRecord{
		ComponentID:      componentID,
		OnHand:           onHand,
		Allocated:        allocated,
		ReorderThreshold: reorderThreshold,
		Location:         location,
	}, nil
}

// Available returns the unallocated quantity on hand
func (r *InventoryRecord) Available() Quantity {
	available := r.OnHand - r.Allocated
	if available < 0 {
		return 0
	}
	return available
}

// Allocate reserves quantity against available stock, enforcing the
// allocated <= on-hand invariant
func (r *InventoryRecord) Allocate(qty Quantity) error {
	if qty <= 0 {
		return fmt.Errorf("allocation quantity must be positive, got %d", qty)
	}
	if qty > r.Available() {
		return fmt.Errorf("cannot allocate %d of %s: only %d available", qty, r.ComponentID, r.Available())
	}
	r.Allocated += qty
	return nil
}

// BelowReorderThreshold reports whether available stock has fallen to or
// below the reorder threshold
func (r *InventoryRecord) BelowReorderThreshold() bool {
	return r.Available() <= r.ReorderThreshold
}
