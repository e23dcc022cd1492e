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

func TestPostgresOrderRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := postgres.NewPostgresOrderRepository(db)
	ctx := context.Background()

	t.Run("NilOrder", func(t *testing.T) {
		assert.ErrorIs(t, repo.Create(ctx, nil), pkgerrors.ErrNilOrder)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		err := repo.Create(ctx, &models.ChargeOrder{ID: "ORDER_1", UserID: 1, Amount: decimal.Zero, Credits: 10})
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidAmount)
	})

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		order := &models.ChargeOrder{
			ID:            "ORDER_1_abcdef12",
			UserID:        1,
			Amount:        decimal.RequireFromString("10.00"),
			Credits:       800,
			PaymentMethod: models.PaymentAlipay,
		}
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO charge_orders`)).
			WithArgs("ORDER_1_abcdef12", int64(1), order.Amount, int64(800), models.PaymentAlipay, models.OrderPending).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		require.NoError(t, repo.Create(ctx, order))
		assert.Equal(t, models.OrderPending, order.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresOrderRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := postgres.NewPostgresOrderRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Cancel", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE charge_orders SET status = $2`)).
			WithArgs("ORDER_1_abcdef12", models.OrderCancelled, "").
			WillReturnRows(sqlmock.NewRows(orderRowColumns).
				AddRow("ORDER_1_abcdef12", int64(1), "10.00", int64(800), "wechat", "cancelled", "", nil, now, now))

		order, err := repo.UpdateStatus(ctx, "ORDER_1_abcdef12", models.OrderCancelled, "")
		require.NoError(t, err)
		assert.Equal(t, models.OrderCancelled, order.Status)
		assert.Nil(t, order.PaidAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotPending", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE charge_orders SET status = $2`)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM charge_orders WHERE id = $1`)).
			WithArgs("ORDER_1_abcdef12").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("paid"))

		_, err := repo.UpdateStatus(ctx, "ORDER_1_abcdef12", models.OrderFailed, "")
		assert.ErrorIs(t, err, pkgerrors.ErrOrderNotPending)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByIDNotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM charge_orders WHERE id = $1`)).
			WithArgs("ORDER_404").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "ORDER_404")
		assert.ErrorIs(t, err, pkgerrors.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
