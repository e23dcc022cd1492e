package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const orderColumns = `id, user_id, amount, credits, payment_method, status, payment_id, paid_at, created_at, updated_at`

type PostgresOrderRepository struct {
	db *sql.DB
}

func NewPostgresOrderRepository(db *sql.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

func scanOrder(row rowScanner) (*models.ChargeOrder, error) {
	var (
		order  models.ChargeOrder
		paidAt sql.NullTime
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Amount,
		&order.Credits,
		&order.PaymentMethod,
		&order.Status,
		&order.PaymentID,
		&paidAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}
	return &order, nil
}

func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.ChargeOrder) (err error) {
	ctx, span, finish := startCall(ctx, "order-repository", "CreateOrder")
	defer func() { finish(err) }()

	if order == nil {
		err = pkgerrors.ErrNilOrder
		return err
	}
	if !order.Amount.IsPositive() || order.Credits <= 0 {
		err = pkgerrors.ErrInvalidAmount
		return err
	}
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	span.SetAttributes(attribute.String("order_id", order.ID), attribute.Int64("user_id", order.UserID))

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO charge_orders (id, user_id, amount, credits, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Amount, order.Credits, order.PaymentMethod, order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		slog.Error("failed to create order", "method", "Create", "order_id", order.ID, "error", err)
		err = fmt.Errorf("failed to create order: %w", err)
		return err
	}

	slog.Info("order created", "method", "Create", "order_id", order.ID, "user_id", order.UserID, "amount", order.Amount.StringFixed(2), "credits", order.Credits)
	return nil
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (order *models.ChargeOrder, err error) {
	ctx, _, finish := startCall(ctx, "order-repository", "GetOrderByID")
	defer func() { finish(err) }()

	order, err = scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM charge_orders WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrOrderNotFound
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get order", "method", "GetByID", "order_id", id, "error", err)
		err = fmt.Errorf("failed to get order: %w", err)
		return nil, err
	}
	return order, nil
}

func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, paymentID string) (order *models.ChargeOrder, err error) {
	ctx, span, finish := startCall(ctx, "order-repository", "UpdateOrderStatus")
	defer func() { finish(err) }()
	span.SetAttributes(attribute.String("order_id", id), attribute.String("status", string(status)))

	order, err = scanOrder(r.db.QueryRowContext(ctx,
		`UPDATE charge_orders SET status = $2, payment_id = COALESCE(NULLIF($3, ''), payment_id), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+orderColumns,
		id, status, paymentID,
	))
	if stderrors.Is(err, sql.ErrNoRows) {
		var current string
		lookupErr := r.db.QueryRowContext(ctx, `SELECT status FROM charge_orders WHERE id = $1`, id).Scan(&current)
		switch {
		case stderrors.Is(lookupErr, sql.ErrNoRows):
			err = pkgerrors.ErrOrderNotFound
		case lookupErr != nil:
			err = fmt.Errorf("failed to check order: %w", lookupErr)
		default:
			err = pkgerrors.ErrOrderNotPending
		}
		return nil, err
	}
	if err != nil {
		slog.Error("failed to update order status", "method", "UpdateStatus", "order_id", id, "error", err)
		err = fmt.Errorf("failed to update order status: %w", err)
		return nil, err
	}

	slog.Info("order status updated", "method", "UpdateStatus", "order_id", id, "status", status)
	return order, nil
}
