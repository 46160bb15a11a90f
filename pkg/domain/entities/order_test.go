package entities

import (
	"testing"
	"time"
)

func TestNewOrder_Validation(t *testing.T) {
	requested := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	validOrder, err := NewOrder("ORD-1", "CUST-1", []OrderItem{{ProductID: "PROD-1", Quantity: 5}}, requested)
	if err != nil {
		t.Fatalf("Expected valid order creation to succeed: %v", err)
	}
	if validOrder.Status != OrderPending {
		t.Errorf("Expected new order to be pending, got %s", validOrder.Status)
	}
	if validOrder.Items[0].Quantity != 5 {
		t.Errorf("Expected quantity 5, got %d", validOrder.Items[0].Quantity)
	}

	testCases := []struct {
		name       string
		id         OrderID
		customerID CustomerID
		items      []OrderItem
	}{
		{"empty order ID", "", "CUST-1", []OrderItem{{ProductID: "PROD-1", Quantity: 1}}},
		{"empty customer ID", "ORD-1", "", []OrderItem{{ProductID: "PROD-1", Quantity: 1}}},
		{"no items", "ORD-1", "CUST-1", nil},
		{"zero quantity item", "ORD-1", "CUST-1", []OrderItem{{ProductID: "PROD-1", Quantity: 0}}},
		{"negative quantity item", "ORD-1", "CUST-1", []OrderItem{{ProductID: "PROD-1", Quantity: -3}}},
		{"empty product ID", "ORD-1", "CUST-1", []OrderItem{{ProductID: "", Quantity: 1}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewOrder(tc.id, tc.customerID, tc.items, requested); err == nil {
				t.Errorf("Expected validation error for %s", tc.name)
			}
		})
	}
}

func TestOrderStatus_String(t *testing.T) {
	statuses := map[OrderStatus]string{
		OrderPending:      "Pending",
		OrderConfirmed:    "Confirmed",
		OrderInProduction: "InProduction",
		OrderShipped:      "Shipped",
		OrderDelivered:    "Delivered",
		OrderCancelled:    "Cancelled",
	}
	for status, want := range statuses {
		if got := status.String(); got != want {
			t.Errorf("Expected %s, got %s", want, got)
		}
	}
}
