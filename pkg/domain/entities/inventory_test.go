package entities

import "testing"

func TestInventoryRecord_Invariants(t *testing.T) {
	if _, err := NewInventoryRecord("COMP-A", 100, 120, 10, "FACTORY"); err == nil {
		t.Error("Expected error when allocated exceeds on-hand")
	}
	if _, err := NewInventoryRecord("COMP-A", -1, 0, 10, "FACTORY"); err == nil {
		t.Error("Expected error for negative on-hand")
	}
	if _, err := NewInventoryRecord("", 10, 0, 10, "FACTORY"); err == nil {
		t.Error("Expected error for empty component ID")
	}
}

func TestInventoryRecord_Available(t *testing.T) {
	rec, err := NewInventoryRecord("COMP-A", 100, 30, 10, "FACTORY")
	if err != nil {
		t.Fatalf("NewInventoryRecord failed: %v", err)
	}
	if rec.Available() != 70 {
		t.Errorf("Expected 70 available, got %d", rec.Available())
	}
}

func TestInventoryRecord_Allocate(t *testing.T) {
	rec, _ := NewInventoryRecord("COMP-A", 100, 30, 10, "FACTORY")

	if err := rec.Allocate(70); err != nil {
		t.Fatalf("Expected allocation of full available quantity to succeed: %v", err)
	}
	if rec.Available() != 0 {
		t.Errorf("Expected 0 available after full allocation, got %d", rec.Available())
	}

	if err := rec.Allocate(1); err == nil {
		t.Error("Expected over-allocation to fail")
	}
	if err := rec.Allocate(0); err == nil {
		t.Error("Expected zero allocation to fail")
	}
}

func TestInventoryRecord_BelowReorderThreshold(t *testing.T) {
	rec, _ := NewInventoryRecord("COMP-A", 100, 95, 10, "FACTORY")
	if !rec.BelowReorderThreshold() {
		t.Error("Expected record at 5 available with threshold 10 to be below threshold")
	}

	rec2, _ := NewInventoryRecord("COMP-B", 100, 0, 10, "FACTORY")
	if rec2.BelowReorderThreshold() {
		t.Error("Expected record at 100 available with threshold 10 to be above threshold")
	}
}
