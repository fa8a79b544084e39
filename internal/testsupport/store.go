package testsupport

import (
	"context"
	"testing"
	"time"

	"pressline/internal/config"
	"pressline/internal/orders"
)

// MustOpenStore opens an orders.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *orders.Store {
	t.Helper()

	store, err := orders.Open(cfg)
	if err != nil {
		t.Fatalf("orders.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewOrder creates an order for tests using the provided store.
func NewOrder(t testing.TB, store *orders.Store, customer string, deliveryDate time.Time) *orders.Order {
	t.Helper()

	ord, err := store.CreateOrder(context.Background(), customer, deliveryDate)
	if err != nil {
		t.Fatalf("store.CreateOrder: %v", err)
	}
	return ord
}

// NewLine creates a line under the order with the default substep sequence.
func NewLine(t testing.TB, store *orders.Store, orderID string) *orders.Line {
	t.Helper()

	line, err := store.NewLine(context.Background(), orderID, time.Time{}, nil)
	if err != nil {
		t.Fatalf("store.NewLine: %v", err)
	}
	return line
}
