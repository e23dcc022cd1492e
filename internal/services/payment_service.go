package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	stderrors "errors"

	"github.com/google/uuid"
	"github.com/nanobananary/studio-api/internal/catalog"
	"github.com/nanobananary/studio-api/internal/config"
	"github.com/nanobananary/studio-api/internal/infrastructure/redis"
	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	PaymentModeMock    = "mock"
	PaymentModeGateway = "gateway"
)

var minChargeAmount = decimal.NewFromInt(1)

type ChargeInput struct {
	Amount        decimal.Decimal
	Credits       int64
	PaymentMethod models.PaymentMethod
}

type ChargeResult struct {
	Order      *models.ChargeOrder `json:"order"`
	PaymentURL string              `json:"paymentUrl,omitempty"`
	QRCodeURL  string              `json:"qrCodeUrl,omitempty"`
	Balance    *int64              `json:"balance,omitempty"`
}

type PaymentService interface {
	CreateChargeOrder(ctx context.Context, userID int64, in ChargeInput) (*ChargeResult, error)
	GetOrder(ctx context.Context, userID int64, orderID string) (*models.ChargeOrder, error)
	CancelOrder(ctx context.Context, userID int64, orderID string) (*models.ChargeOrder, error)
	// HandleNotification applies a provider callback. Repeated callbacks for an
	// order that is no longer pending return the order unchanged.
	HandleNotification(ctx context.Context, n models.PaymentNotification) (*models.ChargeOrder, error)
}

type paymentService struct {
	orderRepo       repository.OrderRepository
	transactionRepo repository.TransactionRepository
	redisClient     redis.RedisClient
	events          EventPublisher
	cfg             config.PaymentConfig
	now             func() time.Time
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	transactionRepo repository.TransactionRepository,
	redisClient redis.RedisClient,
	events EventPublisher,
	cfg config.PaymentConfig,
) *paymentService {
	if cfg.CreditsPerUnit <= 0 {
		cfg.CreditsPerUnit = 80
	}
	return &paymentService{
		orderRepo:       orderRepo,
		transactionRepo: transactionRepo,
		redisClient:     redisClient,
		events:          events,
		cfg:             cfg,
		now:             time.Now,
	}
}

func newOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ORDER_%d_%s", now.UnixMilli(), suffix)
}

func (s *paymentService) CreateChargeOrder(ctx context.Context, userID int64, in ChargeInput) (*ChargeResult, error) {
	tracer := otel.Tracer("payment-service")
	ctx, span := tracer.Start(ctx, "CreateChargeOrder")
	defer span.End()

	if !in.PaymentMethod.Valid() {
		span.SetStatus(codes.Error, "unsupported payment method")
		return nil, pkgerrors.ErrUnsupportedPaymentMethod
	}
	if in.Amount.LessThan(minChargeAmount) || !in.Amount.Equal(in.Amount.Round(2)) {
		span.SetStatus(codes.Error, "invalid amount")
		return nil, fmt.Errorf("%w: amount must be at least 1 with at most 2 decimals", pkgerrors.ErrInvalidInput)
	}
	expected := catalog.CreditsFor(in.Amount, s.cfg.CreditsPerUnit)
	if in.Credits != expected {
		span.SetStatus(codes.Error, "credits mismatch")
		slog.Warn("credits do not match amount", "user_id", userID, "amount", in.Amount.StringFixed(2), "credits", in.Credits, "expected", expected)
		return nil, fmt.Errorf("%w: credits must be %d for this amount", pkgerrors.ErrInvalidInput, expected)
	}

	order := &models.ChargeOrder{
		ID:            newOrderID(s.now()),
		UserID:        userID,
		Amount:        in.Amount.Round(2),
		Credits:       in.Credits,
		PaymentMethod: in.PaymentMethod,
		Status:        models.OrderPending,
	}
	span.SetAttributes(attribute.String("order_id", order.ID))
	if err := s.orderRepo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation failed")
		slog.Error("failed to create charge order", "user_id", userID, "error", err)
		return nil, err
	}

	if s.cfg.Mode != PaymentModeGateway {
		settled, tx, err := s.settle(ctx, order.ID, "MOCK_"+order.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "mock settlement failed")
			return nil, err
		}
		slog.Info("charge order settled", "order_id", order.ID, "user_id", userID, "credits", order.Credits, "mode", PaymentModeMock)
		return &ChargeResult{Order: settled, Balance: &tx.Balance}, nil
	}

	result := &ChargeResult{Order: order}
	base := strings.TrimRight(s.cfg.GatewayURL, "/")
	query := url.Values{"orderId": {order.ID}, "amount": {order.Amount.StringFixed(2)}}.Encode()
	switch order.PaymentMethod {
	case models.PaymentAlipay:
		result.PaymentURL = base + "/alipay/checkout?" + query
	case models.PaymentWechat:
		result.QRCodeURL = base + "/wechat/qrcode?" + query
	}

	slog.Info("charge order created", "order_id", order.ID, "user_id", userID, "amount", order.Amount.StringFixed(2), "method", order.PaymentMethod)
	return result, nil
}

func (s *paymentService) settle(ctx context.Context, orderID, paymentID string) (*models.ChargeOrder, *models.CreditTransaction, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	description := fmt.Sprintf("recharge %s via %s", order.Amount.StringFixed(2), order.PaymentMethod)
	settled, tx, err := s.transactionRepo.SettleOrder(ctx, orderID, paymentID, description)
	if err != nil {
		return nil, nil, err
	}
	afterLedgerWrite(ctx, s.redisClient, s.events, tx)
	return settled, tx, nil
}

func (s *paymentService) GetOrder(ctx context.Context, userID int64, orderID string) (*models.ChargeOrder, error) {
	tracer := otel.Tracer("payment-service")
	ctx, span := tracer.Start(ctx, "GetOrder")
	defer span.End()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order lookup failed")
		return nil, err
	}
	if order.UserID != userID {
		span.SetStatus(codes.Error, "foreign order")
		slog.Warn("order belongs to another user", "order_id", orderID, "user_id", userID)
		return nil, pkgerrors.ErrOrderNotFound
	}
	return order, nil
}

func (s *paymentService) CancelOrder(ctx context.Context, userID int64, orderID string) (*models.ChargeOrder, error) {
	tracer := otel.Tracer("payment-service")
	ctx, span := tracer.Start(ctx, "CancelOrder")
	defer span.End()

	if _, err := s.GetOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.UpdateStatus(ctx, orderID, models.OrderCancelled, "")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		slog.Warn("failed to cancel order", "order_id", orderID, "user_id", userID, "error", err)
		return nil, err
	}

	slog.Info("charge order cancelled", "order_id", orderID, "user_id", userID)
	return order, nil
}

func (s *paymentService) HandleNotification(ctx context.Context, n models.PaymentNotification) (*models.ChargeOrder, error) {
	tracer := otel.Tracer("payment-service")
	ctx, span := tracer.Start(ctx, "HandleNotification")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", n.OrderID), attribute.String("status", string(n.Status)))

	if n.OrderID == "" {
		span.SetStatus(codes.Error, "missing order id")
		return nil, fmt.Errorf("%w: orderId required", pkgerrors.ErrInvalidInput)
	}

	var (
		order *models.ChargeOrder
		err   error
	)
	switch n.Status {
	case models.OrderPaid, models.OrderCompleted:
		order, _, err = s.settle(ctx, n.OrderID, n.PaymentID)
	case models.OrderFailed:
		order, err = s.orderRepo.UpdateStatus(ctx, n.OrderID, models.OrderFailed, n.PaymentID)
	default:
		span.SetStatus(codes.Error, "unknown status")
		return nil, fmt.Errorf("%w: unsupported status %q", pkgerrors.ErrInvalidInput, n.Status)
	}

	if stderrors.Is(err, pkgerrors.ErrOrderNotPending) {
		slog.Info("notification for settled order acknowledged", "order_id", n.OrderID, "status", n.Status)
		return s.orderRepo.GetByID(ctx, n.OrderID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "notification failed")
		slog.Error("failed to apply payment notification", "order_id", n.OrderID, "status", n.Status, "error", err)
		return nil, err
	}

	slog.Info("payment notification applied", "order_id", order.ID, "user_id", order.UserID, "status", order.Status)
	return order, nil
}
