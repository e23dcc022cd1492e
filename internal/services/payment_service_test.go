package service

import (
	"context"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/nanobananary/studio-api/internal/config"
	"github.com/nanobananary/studio-api/internal/infrastructure/kafka"
	redismocks "github.com/nanobananary/studio-api/internal/infrastructure/redis/mocks"
	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository/memory"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaymentFixture(t *testing.T, mode string) (*memory.Store, *recordingPublisher, *paymentService) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	store := memory.NewStore()
	redisClient := redismocks.NewMockRedisClient(ctrl)
	redisClient.EXPECT().Del(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	events := &recordingPublisher{}
	service := NewPaymentService(store.Orders(), store.Transactions(), redisClient, events, config.PaymentConfig{
		Mode:           mode,
		GatewayURL:     "https://pay.example.com/",
		CreditsPerUnit: 80,
	})
	return store, events, service
}

func TestPaymentService_MockCharge(t *testing.T) {
	store, events, service := newPaymentFixture(t, PaymentModeMock)
	ctx := context.Background()
	user := seedUser(t, store, "alice", "13800138000", 100)

	res, err := service.CreateChargeOrder(ctx, user.ID, ChargeInput{
		Amount:        decimal.NewFromInt(20),
		Credits:       1600,
		PaymentMethod: models.PaymentAlipay,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, res.Order.Status)
	assert.True(t, strings.HasPrefix(res.Order.ID, "ORDER_"))
	require.NotNil(t, res.Balance)
	assert.Equal(t, int64(1700), *res.Balance)
	assert.Equal(t, int64(1700), balanceOf(t, store, user.ID))

	published := events.byTopic(kafka.TopicCreditTransactions)
	require.Len(t, published, 1)
	assert.Equal(t, res.Order.ID, published[0].event["order_id"])
}

func TestPaymentService_Validation(t *testing.T) {
	store, _, service := newPaymentFixture(t, PaymentModeMock)
	ctx := context.Background()
	user := seedUser(t, store, "alice", "13800138000", 0)

	_, err := service.CreateChargeOrder(ctx, user.ID, ChargeInput{Amount: decimal.NewFromInt(20), Credits: 1600, PaymentMethod: "paypal"})
	assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedPaymentMethod)

	_, err = service.CreateChargeOrder(ctx, user.ID, ChargeInput{Amount: decimal.NewFromInt(20), Credits: 99999, PaymentMethod: models.PaymentWechat})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)

	_, err = service.CreateChargeOrder(ctx, user.ID, ChargeInput{Amount: decimal.RequireFromString("0.50"), Credits: 40, PaymentMethod: models.PaymentWechat})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)

	_, err = service.CreateChargeOrder(ctx, user.ID, ChargeInput{Amount: decimal.RequireFromString("1.255"), Credits: 100, PaymentMethod: models.PaymentWechat})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)

	assert.Equal(t, int64(0), balanceOf(t, store, user.ID))
}

func TestPaymentService_GatewayFlow(t *testing.T) {
	store, _, service := newPaymentFixture(t, PaymentModeGateway)
	ctx := context.Background()
	alice := seedUser(t, store, "alice", "13800138000", 0)
	bob := seedUser(t, store, "bob", "13900139000", 0)

	res, err := service.CreateChargeOrder(ctx, alice.ID, ChargeInput{
		Amount:        decimal.RequireFromString("12.50"),
		Credits:       1000,
		PaymentMethod: models.PaymentAlipay,
	})
	require.NoError(t, err)
	order := res.Order
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Nil(t, res.Balance)
	assert.True(t, strings.HasPrefix(res.PaymentURL, "https://pay.example.com/alipay/checkout?"))
	assert.Contains(t, res.PaymentURL, "orderId="+order.ID)

	t.Run("foreign order is hidden", func(t *testing.T) {
		_, err := service.GetOrder(ctx, bob.ID, order.ID)
		assert.ErrorIs(t, err, pkgerrors.ErrOrderNotFound)
		_, err = service.CancelOrder(ctx, bob.ID, order.ID)
		assert.ErrorIs(t, err, pkgerrors.ErrOrderNotFound)
	})

	t.Run("paid notification settles once", func(t *testing.T) {
		paid, err := service.HandleNotification(ctx, models.PaymentNotification{OrderID: order.ID, PaymentID: "PAY-1", Status: models.OrderPaid})
		require.NoError(t, err)
		assert.Equal(t, models.OrderPaid, paid.Status)
		assert.Equal(t, int64(1000), balanceOf(t, store, alice.ID))

		again, err := service.HandleNotification(ctx, models.PaymentNotification{OrderID: order.ID, PaymentID: "PAY-1", Status: models.OrderPaid})
		require.NoError(t, err)
		assert.Equal(t, models.OrderPaid, again.Status)
		assert.Equal(t, int64(1000), balanceOf(t, store, alice.ID))

		_, total, err := store.Transactions().ListByUser(ctx, alice.ID, models.NewPage(1, 20))
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("paid order cannot be cancelled", func(t *testing.T) {
		_, err := service.CancelOrder(ctx, alice.ID, order.ID)
		assert.ErrorIs(t, err, pkgerrors.ErrOrderNotPending)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := service.HandleNotification(ctx, models.PaymentNotification{OrderID: "ORDER_1_deadbeef", Status: models.OrderPaid})
		assert.ErrorIs(t, err, pkgerrors.ErrOrderNotFound)
	})
}

func TestPaymentService_CancelAndFail(t *testing.T) {
	store, _, service := newPaymentFixture(t, PaymentModeGateway)
	ctx := context.Background()
	user := seedUser(t, store, "alice", "13800138000", 0)

	first, err := service.CreateChargeOrder(ctx, user.ID, ChargeInput{Amount: decimal.NewFromInt(10), Credits: 800, PaymentMethod: models.PaymentWechat})
	require.NoError(t, err)
	assert.Contains(t, first.QRCodeURL, "/wechat/qrcode?")

	cancelled, err := service.CancelOrder(ctx, user.ID, first.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)

	late, err := service.HandleNotification(ctx, models.PaymentNotification{OrderID: first.Order.ID, Status: models.OrderPaid})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, late.Status)
	assert.Equal(t, int64(0), balanceOf(t, store, user.ID))

	second, err := service.CreateChargeOrder(ctx, user.ID, ChargeInput{Amount: decimal.NewFromInt(50), Credits: 4000, PaymentMethod: models.PaymentAlipay})
	require.NoError(t, err)
	failed, err := service.HandleNotification(ctx, models.PaymentNotification{OrderID: second.Order.ID, Status: models.OrderFailed})
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, failed.Status)

	_, err = service.HandleNotification(ctx, models.PaymentNotification{OrderID: second.Order.ID, Status: "refunded"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}
