package postgres_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository/postgres"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	updateCreditsQuery = `UPDATE users SET credits = credits + $1`
	insertEntryQuery   = `INSERT INTO credit_transactions`
)

func TestPostgresTransactionRepository_Apply(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := postgres.NewPostgresTransactionRepository(db)
	ctx := context.Background()

	t.Run("NilTransaction", func(t *testing.T) {
		assert.ErrorIs(t, repo.Apply(ctx, nil), pkgerrors.ErrNilTransaction)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InvalidType", func(t *testing.T) {
		err := repo.Apply(ctx, &models.CreditTransaction{UserID: 1, Type: "bonus", Amount: 10})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidTransactionType)
	})

	t.Run("ConsumeWithPositiveAmount", func(t *testing.T) {
		err := repo.Apply(ctx, &models.CreditTransaction{UserID: 1, Type: models.TypeConsume, Amount: 10})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidAmount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Consume", func(t *testing.T) {
		now := time.Now()
		tx := &models.CreditTransaction{UserID: 1, Type: models.TypeConsume, Amount: -50, Description: "image generation"}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(updateCreditsQuery)).
			WithArgs(int64(-50), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(int64(50)))
		mock.ExpectQuery(regexp.QuoteMeta(insertEntryQuery)).
			WithArgs(int64(1), models.TypeConsume, int64(-50), int64(50), "image generation", "").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), now))
		mock.ExpectCommit()

		err := repo.Apply(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, int64(10), tx.ID)
		assert.Equal(t, int64(50), tx.Balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientCredits", func(t *testing.T) {
		tx := &models.CreditTransaction{UserID: 1, Type: models.TypeConsume, Amount: -500}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(updateCreditsQuery)).
			WithArgs(int64(-500), int64(1)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE id = $1`)).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectRollback()

		err := repo.Apply(ctx, tx)
		assert.ErrorIs(t, err, pkgerrors.ErrInsufficientCredits)
		assert.Zero(t, tx.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UserNotFound", func(t *testing.T) {
		tx := &models.CreditTransaction{UserID: 99, Type: models.TypeRefund, Amount: 50}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(updateCreditsQuery)).
			WithArgs(int64(50), int64(99)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM users WHERE id = $1`)).
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Apply(ctx, tx), pkgerrors.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

var orderRowColumns = []string{"id", "user_id", "amount", "credits", "payment_method", "status", "payment_id", "paid_at", "created_at", "updated_at"}

func TestPostgresTransactionRepository_SettleOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := postgres.NewPostgresTransactionRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE charge_orders SET status = 'paid'`)).
			WithArgs("ORDER_1_abcdef12", "pay-1").
			WillReturnRows(sqlmock.NewRows(orderRowColumns).
				AddRow("ORDER_1_abcdef12", int64(1), "10.00", int64(800), "alipay", "paid", "pay-1", now, now, now))
		mock.ExpectQuery(regexp.QuoteMeta(updateCreditsQuery)).
			WithArgs(int64(800), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"credits"}).AddRow(int64(900)))
		mock.ExpectQuery(regexp.QuoteMeta(insertEntryQuery)).
			WithArgs(int64(1), models.TypeCharge, int64(800), int64(900), "recharge", "ORDER_1_abcdef12").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))
		mock.ExpectCommit()

		order, entry, err := repo.SettleOrder(ctx, "ORDER_1_abcdef12", "pay-1", "recharge")
		require.NoError(t, err)
		assert.Equal(t, models.OrderPaid, order.Status)
		assert.True(t, order.Amount.Equal(decimal.NewFromInt(10)))
		assert.NotNil(t, order.PaidAt)
		assert.Equal(t, int64(900), entry.Balance)
		assert.Equal(t, "ORDER_1_abcdef12", entry.OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE charge_orders SET status = 'paid'`)).
			WithArgs("ORDER_1_abcdef12", "pay-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM charge_orders WHERE id = $1`)).
			WithArgs("ORDER_1_abcdef12").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("paid"))
		mock.ExpectRollback()

		_, _, err := repo.SettleOrder(ctx, "ORDER_1_abcdef12", "pay-1", "recharge")
		assert.ErrorIs(t, err, pkgerrors.ErrOrderNotPending)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE charge_orders SET status = 'paid'`)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM charge_orders WHERE id = $1`)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, _, err := repo.SettleOrder(ctx, "ORDER_404", "", "recharge")
		assert.ErrorIs(t, err, pkgerrors.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresTransactionRepository_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := postgres.NewPostgresTransactionRepository(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM credit_transactions WHERE user_id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM credit_transactions WHERE user_id = $1`)).
		WithArgs(int64(1), 2, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "amount", "balance", "description", "order_id", "created_at"}).
			AddRow(int64(3), int64(1), "charge", int64(50), int64(100), "recharge", "ORDER_1_abcdef12", now).
			AddRow(int64(2), int64(1), "consume", int64(-50), int64(50), "image generation", "", now))

	items, total, err := repo.ListByUser(ctx, 1, models.NewPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, models.TypeCharge, items[0].Type)
	assert.Equal(t, int64(-50), items[1].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
