package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vegnar/orders-api/internal/domain/order"
)

const createOrderSQL = `INSERT INTO orders (
		amount, currency, gateway_order_id, status, full_name, email,
		phone_number, company, shipping_address, additional_message,
		sample_count, line_items)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id, created_at`

const orderColumns = `id, amount, currency, gateway_order_id,
	gateway_payment_id, gateway_signature, status, full_name, email,
	phone_number, company, shipping_address, additional_message,
	sample_count, line_items, created_at`

// LIMIT 2 lets the scan detect an integrity violation (more than one row
// per gateway order id) without reading the whole table.
const findByGatewayOrderIDSQL = `SELECT ` + orderColumns + `
	FROM orders WHERE gateway_order_id = $1 LIMIT 2`

// The status condition makes the transition conditional: of any number of
// concurrent confirmations, exactly one matches a row.
const markPaidSQL = `UPDATE orders
	SET status = 'paid', gateway_payment_id = $2, gateway_signature = $3
	WHERE gateway_order_id = $1 AND status = 'created'
	RETURNING ` + orderColumns

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. The database assigns id and created_at;
// line items are serialized to JSON for the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) (*order.Order, error) {
	items, err := marshalLineItems(o.LineItems)
	if err != nil {
		return nil, err
	}

	saved := *o
	err = r.pool.QueryRow(ctx, createOrderSQL,
		o.Amount, o.Currency, o.GatewayOrderID, string(o.Status),
		o.FullName, o.Email,
		nullable(o.PhoneNumber), nullable(o.Company),
		o.ShippingAddress, nullable(o.AdditionalMessage),
		o.SampleCount, items,
	).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating order for gateway order %q: %w", o.GatewayOrderID, err)
	}

	return &saved, nil
}

// FindByGatewayOrderID returns the single order with the given gateway order
// id. More than one match is a data-integrity error, never resolved by
// picking a row.
func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, findByGatewayOrderIDSQL, gatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("finding order by gateway order %q: %w", gatewayOrderID, err)
	}
	defer rows.Close()

	var found []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order for gateway order %q: %w", gatewayOrderID, err)
		}
		found = append(found, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("finding order by gateway order %q: %w", gatewayOrderID, err)
	}

	switch len(found) {
	case 0:
		return nil, order.ErrNotFound
	case 1:
		return found[0], nil
	default:
		return nil, errors.Wrapf(order.ErrDuplicateGatewayOrder, "gateway order %q", gatewayOrderID)
	}
}

// MarkPaid performs the conditional created-to-paid transition. When no row
// is in the created state for the id, it returns order.ErrNotFound; the
// caller re-reads to distinguish a lost race from a missing order.
func (r *OrderRepository) MarkPaid(ctx context.Context, gatewayOrderID, paymentID, signature string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, markPaidSQL, gatewayOrderID, paymentID, signature)
	if err != nil {
		return nil, fmt.Errorf("marking order paid for gateway order %q: %w", gatewayOrderID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("marking order paid for gateway order %q: %w", gatewayOrderID, err)
		}
		return nil, order.ErrNotFound
	}

	o, err := scanOrder(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning paid order for gateway order %q: %w", gatewayOrderID, err)
	}
	return o, nil
}

// scanOrder reads one row in orderColumns order.
func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o         order.Order
		status    string
		paymentID *string
		signature *string
		phone     *string
		company   *string
		message   *string
		items     []byte
	)

	err := row.Scan(
		&o.ID, &o.Amount, &o.Currency, &o.GatewayOrderID,
		&paymentID, &signature, &status, &o.FullName, &o.Email,
		&phone, &company, &o.ShippingAddress, &message,
		&o.SampleCount, &items, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Status = order.Status(status)
	o.GatewayPaymentID = deref(paymentID)
	o.GatewaySignature = deref(signature)
	o.PhoneNumber = deref(phone)
	o.Company = deref(company)
	o.AdditionalMessage = deref(message)

	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.LineItems); err != nil {
			return nil, fmt.Errorf("unmarshaling line items: %w", err)
		}
	}

	return &o, nil
}

func marshalLineItems(items []order.LineItem) ([]byte, error) {
	if len(items) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshaling line items: %w", err)
	}
	return data, nil
}

// nullable maps an empty string onto SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
