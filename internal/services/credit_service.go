package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	stderrors "errors"

	"github.com/nanobananary/studio-api/internal/catalog"
	"github.com/nanobananary/studio-api/internal/infrastructure/redis"
	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const requestTTL = 24 * time.Hour

type CreditService interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	// Consume debits amount credits. A non-empty requestID makes the call idempotent for 24h.
	Consume(ctx context.Context, userID, amount int64, description, requestID string) (*models.CreditTransaction, error)
	Refund(ctx context.Context, userID, amount int64, description string) (*models.CreditTransaction, error)
	// ReleaseRequest frees requestID so a refunded request can be retried.
	ReleaseRequest(ctx context.Context, userID int64, requestID string)
	Grant(ctx context.Context, userID, amount int64, description string) (*models.CreditTransaction, error)
	GetTransactions(ctx context.Context, userID int64, page models.Page) ([]models.CreditTransaction, models.Pagination, error)
	Packages() []models.ChargePackage
}

type creditService struct {
	userRepo        repository.UserRepository
	transactionRepo repository.TransactionRepository
	redisClient     redis.RedisClient
	events          EventPublisher
}

func NewCreditService(
	userRepo repository.UserRepository,
	transactionRepo repository.TransactionRepository,
	redisClient redis.RedisClient,
	events EventPublisher,
) *creditService {
	return &creditService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		redisClient:     redisClient,
		events:          events,
	}
}

func (s *creditService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	tracer := otel.Tracer("credit-service")
	ctx, span := tracer.Start(ctx, "GetBalance")
	defer span.End()

	key := creditsKey(userID)
	cached, err := s.redisClient.Get(ctx, key)
	if err == nil {
		balance, err := strconv.ParseInt(cached, 10, 64)
		if err == nil {
			slog.Debug("balance fetched from Redis", "user_id", userID, "balance", balance)
			return balance, nil
		}
		slog.Error("failed to parse cached balance", "user_id", userID, "value", cached, "error", err)
	} else if !stderrors.Is(err, redis.ErrKeyNotFound) {
		slog.Error("failed to read balance cache", "user_id", userID, "error", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get user")
		slog.Error("failed to get balance", "user_id", userID, "error", err)
		return 0, err
	}

	if err := s.redisClient.Set(ctx, key, user.Credits, balanceCacheTTL); err != nil {
		slog.Error("failed to cache balance", "user_id", userID, "error", err)
	}
	return user.Credits, nil
}

func (s *creditService) Consume(ctx context.Context, userID, amount int64, description, requestID string) (*models.CreditTransaction, error) {
	tracer := otel.Tracer("credit-service")
	ctx, span := tracer.Start(ctx, "Consume")
	defer span.End()

	if amount <= 0 {
		span.SetStatus(codes.Error, "invalid amount")
		return nil, pkgerrors.ErrInvalidAmount
	}

	requestKey := ""
	if requestID != "" {
		requestKey = requestIDKey(userID, requestID)
		ok, err := s.redisClient.SetNX(ctx, requestKey, "pending", requestTTL)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to set request key")
			slog.Error("failed to set request key", "user_id", userID, "request_id", requestID, "error", err)
			return nil, fmt.Errorf("%w: failed to reserve request", pkgerrors.ErrInternal)
		}
		if !ok {
			span.SetStatus(codes.Error, "request already processed")
			slog.Warn("request already processed", "user_id", userID, "request_id", requestID)
			return nil, pkgerrors.ErrRequestAlreadyProcessed
		}
	}

	tx := &models.CreditTransaction{
		UserID:      userID,
		Type:        models.TypeConsume,
		Amount:      -amount,
		Description: description,
	}
	if err := s.transactionRepo.Apply(ctx, tx); err != nil {
		s.ReleaseRequest(ctx, userID, requestID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "consume failed")
		slog.Warn("failed to consume credits", "user_id", userID, "amount", amount, "error", err)
		return nil, err
	}

	afterLedgerWrite(ctx, s.redisClient, s.events, tx)
	slog.Info("credits consumed", "user_id", userID, "amount", amount, "balance", tx.Balance, "request_id", requestID)
	return tx, nil
}

func requestIDKey(userID int64, requestID string) string {
	return fmt.Sprintf("request:%d:%s", userID, requestID)
}

func (s *creditService) ReleaseRequest(ctx context.Context, userID int64, requestID string) {
	if requestID == "" {
		return
	}
	if err := s.redisClient.Del(ctx, requestIDKey(userID, requestID)); err != nil {
		slog.Error("failed to release request key", "user_id", userID, "request_id", requestID, "error", err)
	}
}

func (s *creditService) Refund(ctx context.Context, userID, amount int64, description string) (*models.CreditTransaction, error) {
	return s.credit(ctx, "Refund", models.TypeRefund, userID, amount, description)
}

func (s *creditService) Grant(ctx context.Context, userID, amount int64, description string) (*models.CreditTransaction, error) {
	return s.credit(ctx, "Grant", models.TypeCharge, userID, amount, description)
}

func (s *creditService) credit(ctx context.Context, method string, txType models.TransactionType, userID, amount int64, description string) (*models.CreditTransaction, error) {
	tracer := otel.Tracer("credit-service")
	ctx, span := tracer.Start(ctx, method)
	defer span.End()

	if amount <= 0 {
		span.SetStatus(codes.Error, "invalid amount")
		return nil, pkgerrors.ErrInvalidAmount
	}

	tx := &models.CreditTransaction{
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Description: description,
	}
	if err := s.transactionRepo.Apply(ctx, tx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger write failed")
		slog.Error("failed to credit user", "method", method, "user_id", userID, "amount", amount, "error", err)
		return nil, err
	}

	afterLedgerWrite(ctx, s.redisClient, s.events, tx)
	slog.Info("credits added", "method", method, "user_id", userID, "amount", amount, "balance", tx.Balance)
	return tx, nil
}

func (s *creditService) GetTransactions(ctx context.Context, userID int64, page models.Page) ([]models.CreditTransaction, models.Pagination, error) {
	tracer := otel.Tracer("credit-service")
	ctx, span := tracer.Start(ctx, "GetTransactions")
	defer span.End()

	items, total, err := s.transactionRepo.ListByUser(ctx, userID, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list transactions")
		slog.Error("failed to get transactions", "user_id", userID, "error", err)
		return nil, models.Pagination{}, err
	}
	if items == nil {
		items = []models.CreditTransaction{}
	}

	slog.Info("transactions retrieved", "user_id", userID, "count", len(items), "total", total)
	return items, page.Result(total), nil
}

func (s *creditService) Packages() []models.ChargePackage {
	return catalog.Packages()
}
