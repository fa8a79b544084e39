package api

import (
	"context"
	"time"

	"pressline/internal/logging"
	"pressline/internal/orders"
)

// CreateOrder registers a new customer order.
func (s *Service) CreateOrder(ctx context.Context, customer string, deliveryDate time.Time) (*orders.Order, error) {
	ord, err := s.store.CreateOrder(ctx, customer, deliveryDate)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order created",
		logging.String(logging.FieldOrderID, ord.ID),
		logging.String("customer", customer),
	)
	return ord, nil
}

// CreateLine opens a production line under an order. A zero deliveryDate
// falls back to the order deadline; a nil sequence uses the default
// manufacturing substeps.
func (s *Service) CreateLine(ctx context.Context, orderID string, deliveryDate time.Time, sequence []orders.Substage) (*orders.Line, error) {
	line, err := s.store.NewLine(ctx, orderID, deliveryDate, sequence)
	if err != nil {
		return nil, err
	}
	s.logger.Info("line created",
		logging.String(logging.FieldLineID, line.ID),
		logging.String(logging.FieldOrderID, line.OrderID),
	)
	return line, nil
}

// Orders lists every known order.
func (s *Service) Orders(ctx context.Context) ([]*orders.Order, error) {
	return s.store.ListOrders(ctx)
}

// Lines lists lines, optionally restricted to the given stages.
func (s *Service) Lines(ctx context.Context, stages ...orders.Stage) ([]*orders.Line, error) {
	return s.store.ListLines(ctx, stages...)
}

// LinesForOrder lists the lines under one order.
func (s *Service) LinesForOrder(ctx context.Context, orderID string) ([]*orders.Line, error) {
	return s.store.LinesForOrder(ctx, orderID)
}

// OrderCompleted reports whether every line of the order reached done.
func (s *Service) OrderCompleted(ctx context.Context, orderID string) (bool, error) {
	return s.store.OrderCompleted(ctx, orderID)
}

// Stats returns per-stage line counts.
func (s *Service) Stats(ctx context.Context) (map[orders.Stage]int, error) {
	return s.store.Stats(ctx)
}

// Summary returns the aggregate workload view.
func (s *Service) Summary(ctx context.Context) (orders.Summary, error) {
	return s.store.Health(ctx)
}
