package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/nanobananary/studio-api/internal/infrastructure/observability"
	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

type PostgresTransactionRepository struct {
	db *sql.DB
}

func NewPostgresTransactionRepository(db *sql.DB) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func validateEntry(tx *models.CreditTransaction) error {
	if tx == nil {
		return pkgerrors.ErrNilTransaction
	}
	switch tx.Type {
	case models.TypeConsume:
		if tx.Amount >= 0 {
			return fmt.Errorf("%w: consume amount must be negative", pkgerrors.ErrInvalidAmount)
		}
	case models.TypeCharge, models.TypeRefund:
		if tx.Amount <= 0 {
			return pkgerrors.ErrInvalidAmount
		}
	default:
		return pkgerrors.ErrInvalidTransactionType
	}
	return nil
}

func rollback(dbTx *sql.Tx, method string, err error) error {
	if rbErr := dbTx.Rollback(); rbErr != nil {
		slog.Error("rollback failed", "method", method, "error", rbErr)
		return fmt.Errorf("rollback failed: %v; original error: %w", rbErr, err)
	}
	return err
}

// applyInTx performs the conditional balance update and the ledger insert on dbTx.
func applyInTx(ctx context.Context, dbTx *sql.Tx, tx *models.CreditTransaction) error {
	var balance int64
	err := dbTx.QueryRowContext(ctx,
		`UPDATE users SET credits = credits + $1, updated_at = NOW() WHERE id = $2 AND credits + $1 >= 0 RETURNING credits`,
		tx.Amount, tx.UserID,
	).Scan(&balance)
	if stderrors.Is(err, sql.ErrNoRows) {
		var exists int
		lookupErr := dbTx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = $1`, tx.UserID).Scan(&exists)
		if stderrors.Is(lookupErr, sql.ErrNoRows) {
			return pkgerrors.ErrUserNotFound
		}
		if lookupErr != nil {
			return fmt.Errorf("failed to check user: %w", lookupErr)
		}
		return pkgerrors.ErrInsufficientCredits
	}
	if err != nil {
		return fmt.Errorf("failed to update credits: %w", err)
	}

	err = dbTx.QueryRowContext(ctx,
		`INSERT INTO credit_transactions (user_id, type, amount, balance, description, order_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, created_at`,
		tx.UserID, tx.Type, tx.Amount, balance, tx.Description, tx.OrderID,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	tx.Balance = balance
	return nil
}

func (r *PostgresTransactionRepository) Apply(ctx context.Context, tx *models.CreditTransaction) (err error) {
	ctx, span, finish := startCall(ctx, "transaction-repository", "ApplyTransaction")
	defer func() { finish(err) }()

	if err = validateEntry(tx); err != nil {
		slog.Error("invalid ledger entry", "method", "Apply", "error", err)
		return err
	}
	span.SetAttributes(
		attribute.Int64("user_id", tx.UserID),
		attribute.Int64("amount", tx.Amount),
		attribute.String("type", string(tx.Type)),
	)

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "Apply", "error", err)
		err = fmt.Errorf("failed to begin transaction: %w", err)
		return err
	}

	if err = applyInTx(ctx, dbTx, tx); err != nil {
		err = rollback(dbTx, "Apply", err)
		if !stderrors.Is(err, pkgerrors.ErrInsufficientCredits) {
			slog.Error("failed to apply ledger entry", "method", "Apply", "user_id", tx.UserID, "type", tx.Type, "amount", tx.Amount, "error", err)
		}
		return err
	}

	if err = dbTx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "method", "Apply", "error", err)
		err = fmt.Errorf("failed to commit transaction: %w", err)
		return err
	}

	observability.LedgerEntries.WithLabelValues(string(tx.Type)).Inc()
	slog.Info("ledger entry applied", "method", "Apply", "id", tx.ID, "user_id", tx.UserID, "type", tx.Type, "amount", tx.Amount, "balance", tx.Balance)
	return nil
}

func (r *PostgresTransactionRepository) SettleOrder(ctx context.Context, orderID, paymentID, description string) (order *models.ChargeOrder, entry *models.CreditTransaction, err error) {
	ctx, span, finish := startCall(ctx, "transaction-repository", "SettleOrder")
	defer func() { finish(err) }()
	span.SetAttributes(attribute.String("order_id", orderID))

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "SettleOrder", "error", err)
		err = fmt.Errorf("failed to begin transaction: %w", err)
		return nil, nil, err
	}

	order, err = scanOrder(dbTx.QueryRowContext(ctx,
		`UPDATE charge_orders SET status = 'paid', payment_id = $2, paid_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+orderColumns,
		orderID, paymentID,
	))
	if stderrors.Is(err, sql.ErrNoRows) {
		var status string
		lookupErr := dbTx.QueryRowContext(ctx, `SELECT status FROM charge_orders WHERE id = $1`, orderID).Scan(&status)
		switch {
		case stderrors.Is(lookupErr, sql.ErrNoRows):
			err = pkgerrors.ErrOrderNotFound
		case lookupErr != nil:
			err = fmt.Errorf("failed to check order: %w", lookupErr)
		default:
			err = pkgerrors.ErrOrderNotPending
		}
		err = rollback(dbTx, "SettleOrder", err)
		return nil, nil, err
	}
	if err != nil {
		err = rollback(dbTx, "SettleOrder", fmt.Errorf("failed to mark order paid: %w", err))
		slog.Error("failed to settle order", "method", "SettleOrder", "order_id", orderID, "error", err)
		return nil, nil, err
	}

	entry = &models.CreditTransaction{
		UserID:      order.UserID,
		Type:        models.TypeCharge,
		Amount:      order.Credits,
		Description: description,
		OrderID:     order.ID,
	}
	if err = applyInTx(ctx, dbTx, entry); err != nil {
		err = rollback(dbTx, "SettleOrder", err)
		slog.Error("failed to credit order", "method", "SettleOrder", "order_id", orderID, "error", err)
		return nil, nil, err
	}

	if err = dbTx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "method", "SettleOrder", "error", err)
		err = fmt.Errorf("failed to commit transaction: %w", err)
		return nil, nil, err
	}

	observability.LedgerEntries.WithLabelValues(string(models.TypeCharge)).Inc()
	slog.Info("order settled", "method", "SettleOrder", "order_id", order.ID, "user_id", order.UserID, "credits", order.Credits, "balance", entry.Balance)
	return order, entry, nil
}

func (r *PostgresTransactionRepository) ListByUser(ctx context.Context, userID int64, page models.Page) (items []models.CreditTransaction, total int, err error) {
	ctx, span, finish := startCall(ctx, "transaction-repository", "ListTransactions")
	defer func() { finish(err) }()
	span.SetAttributes(attribute.Int64("user_id", userID))

	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credit_transactions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		slog.Error("failed to count transactions", "method", "ListByUser", "user_id", userID, "error", err)
		err = fmt.Errorf("failed to count transactions: %w", err)
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, amount, balance, description, COALESCE(order_id, ''), created_at
		FROM credit_transactions WHERE user_id = $1
		ORDER BY id DESC LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset(),
	)
	if err != nil {
		slog.Error("failed to list transactions", "method", "ListByUser", "user_id", userID, "error", err)
		err = fmt.Errorf("failed to list transactions: %w", err)
		return nil, 0, err
	}
	defer rows.Close()

	items = make([]models.CreditTransaction, 0, page.Limit)
	for rows.Next() {
		var tx models.CreditTransaction
		if err = rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Balance, &tx.Description, &tx.OrderID, &tx.CreatedAt); err != nil {
			err = fmt.Errorf("failed to scan transaction: %w", err)
			return nil, 0, err
		}
		items = append(items, tx)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to iterate transactions: %w", err)
		return nil, 0, err
	}
	return items, total, nil
}
