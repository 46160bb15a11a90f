package entities

import "fmt"

// ProductID uniquely identifies a sellable product
type ProductID string

// BOMLine represents a single line in a product's bill of materials
type BOMLine struct {
	ComponentID ComponentID
	QtyPerUnit  Quantity
}

// Product represents a sellable product built from components
type Product struct {
	ID           ProductID
	Name         string
	SKU          string
	HoursPerUnit float64
	BOM          []BOMLine
}

// NewProduct creates a validated Product
func NewProduct(id ProductID, name, sku string, hoursPerUnit float64, bom []BOMLine) (*Product, error) {
	if id == "" {
		return nil, fmt.Errorf("product ID cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("product name cannot be empty")
	}
	if hoursPerUnit <= 0 {
		return nil, fmt.Errorf("hours per unit must be positive, got %f", hoursPerUnit)
	}
	for _, line := range bom {
		if line.ComponentID == "" {
			return nil, fmt.Errorf("BOM line component ID cannot be empty")
		}
		if line.QtyPerUnit <= 0 {
			return nil, fmt.Errorf("BOM line quantity must be positive, got %d for component %s", line.QtyPerUnit, line.ComponentID)
		}
	}

	return &Product{
		ID:           id,
		Name:         name,
		SKU:          sku,
		HoursPerUnit: hoursPerUnit,
		BOM:          bom,
	}, nil
}
