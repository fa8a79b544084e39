package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateOrder inserts a new order for a customer. The delivery date may be
// zero; lines then carry their own dates.
func (s *Store) CreateOrder(ctx context.Context, customer string, deliveryDate time.Time) (*Order, error) {
	customer = normalized(customer)
	if customer == "" {
		return nil, errors.New("customer is required")
	}

	now := time.Now().UTC()
	ord := &Order{
		ID:           uuid.NewString(),
		Customer:     customer,
		DeliveryDate: deliveryDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO orders (id, customer, delivery_date, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		ord.ID,
		ord.Customer,
		nullableTimeValue(ord.DeliveryDate),
		formatTime(ord.CreatedAt),
		formatTime(ord.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return ord, nil
}

// GetOrder fetches an order by identifier.
func (s *Store) GetOrder(ctx context.Context, id string) (*Order, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, customer, delivery_date, created_at, updated_at FROM orders WHERE id = ?`,
		id,
	)
	ord, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return ord, nil
}

// ListOrders returns all orders ordered by creation time.
func (s *Store) ListOrders(ctx context.Context) ([]*Order, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, customer, delivery_date, created_at, updated_at FROM orders ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ord)
	}
	return out, rows.Err()
}

// OrderCompleted reports whether every line of an order has reached the
// terminal stage.
func (s *Store) OrderCompleted(ctx context.Context, orderID string) (bool, error) {
	var total, done int
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1), COALESCE(SUM(CASE WHEN current_stage = ? THEN 1 ELSE 0 END), 0)
         FROM order_lines WHERE order_id = ?`,
		StageDone,
		orderID,
	)
	if err := row.Scan(&total, &done); err != nil {
		return false, fmt.Errorf("order completion: %w", err)
	}
	return total > 0 && total == done, nil
}

func scanOrder(scanner interface{ Scan(dest ...any) error }) (*Order, error) {
	var (
		id          string
		customer    string
		deliveryRaw sql.NullString
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(&id, &customer, &deliveryRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	ord := &Order{ID: id, Customer: customer}
	if deliveryRaw.Valid {
		if delivery, err := parseTimeString(deliveryRaw.String); err == nil {
			ord.DeliveryDate = delivery
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		ord.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		ord.UpdatedAt = updated
	}
	return ord, nil
}
