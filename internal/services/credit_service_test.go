package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nanobananary/studio-api/internal/infrastructure/kafka"
	"github.com/nanobananary/studio-api/internal/infrastructure/redis"
	redismocks "github.com/nanobananary/studio-api/internal/infrastructure/redis/mocks"
	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository/memory"
	repositorymocks "github.com/nanobananary/studio-api/internal/repository/mocks"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditService_GetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := repositorymocks.NewMockUserRepository(ctrl)
	transactionRepo := repositorymocks.NewMockTransactionRepository(ctrl)
	redisClient := redismocks.NewMockRedisClient(ctrl)
	service := NewCreditService(userRepo, transactionRepo, redisClient, &recordingPublisher{})
	ctx := context.Background()

	t.Run("cached", func(t *testing.T) {
		redisClient.EXPECT().Get(gomock.Any(), "user:1:credits").Return("150", nil)

		balance, err := service.GetBalance(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, int64(150), balance)
	})

	t.Run("cache miss", func(t *testing.T) {
		redisClient.EXPECT().Get(gomock.Any(), "user:2:credits").Return("", redis.ErrKeyNotFound)
		userRepo.EXPECT().GetByID(gomock.Any(), int64(2)).Return(&models.User{ID: 2, Credits: 40}, nil)
		redisClient.EXPECT().Set(gomock.Any(), "user:2:credits", int64(40), 5*time.Minute).Return(nil)

		balance, err := service.GetBalance(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, int64(40), balance)
	})

	t.Run("unknown user", func(t *testing.T) {
		redisClient.EXPECT().Get(gomock.Any(), "user:3:credits").Return("", redis.ErrKeyNotFound)
		userRepo.EXPECT().GetByID(gomock.Any(), int64(3)).Return(nil, pkgerrors.ErrUserNotFound)

		_, err := service.GetBalance(ctx, 3)
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
	})
}

func TestCreditService_Consume(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := repositorymocks.NewMockUserRepository(ctrl)
	transactionRepo := repositorymocks.NewMockTransactionRepository(ctrl)
	redisClient := redismocks.NewMockRedisClient(ctrl)
	events := &recordingPublisher{}
	service := NewCreditService(userRepo, transactionRepo, redisClient, events)
	ctx := context.Background()

	t.Run("successful consume", func(t *testing.T) {
		redisClient.EXPECT().SetNX(gomock.Any(), "request:1:req-1", "pending", 24*time.Hour).Return(true, nil)
		transactionRepo.EXPECT().Apply(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tx *models.CreditTransaction) error {
			assert.Equal(t, models.TypeConsume, tx.Type)
			assert.Equal(t, int64(-30), tx.Amount)
			tx.ID = 7
			tx.Balance = 70
			return nil
		})
		redisClient.EXPECT().Del(gomock.Any(), "user:1:credits").Return(nil)

		tx, err := service.Consume(ctx, 1, 30, "image generation", "req-1")
		require.NoError(t, err)
		assert.Equal(t, int64(70), tx.Balance)

		published := events.byTopic(kafka.TopicCreditTransactions)
		require.Len(t, published, 1)
		assert.Equal(t, int64(-30), published[0].event["amount"])
	})

	t.Run("replayed request", func(t *testing.T) {
		redisClient.EXPECT().SetNX(gomock.Any(), "request:1:req-1", "pending", 24*time.Hour).Return(false, nil)

		_, err := service.Consume(ctx, 1, 30, "image generation", "req-1")
		assert.ErrorIs(t, err, pkgerrors.ErrRequestAlreadyProcessed)
	})

	t.Run("insufficient credits releases request", func(t *testing.T) {
		redisClient.EXPECT().SetNX(gomock.Any(), "request:1:req-2", "pending", 24*time.Hour).Return(true, nil)
		transactionRepo.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(pkgerrors.ErrInsufficientCredits)
		redisClient.EXPECT().Del(gomock.Any(), "request:1:req-2").Return(nil)

		_, err := service.Consume(ctx, 1, 500, "image generation", "req-2")
		assert.ErrorIs(t, err, pkgerrors.ErrInsufficientCredits)
	})

	t.Run("redis failure", func(t *testing.T) {
		redisClient.EXPECT().SetNX(gomock.Any(), "request:1:req-3", "pending", 24*time.Hour).Return(false, errors.New("connection refused"))

		_, err := service.Consume(ctx, 1, 30, "image generation", "req-3")
		assert.ErrorIs(t, err, pkgerrors.ErrInternal)
	})

	t.Run("invalid amount", func(t *testing.T) {
		_, err := service.Consume(ctx, 1, 0, "nothing", "")
		assert.ErrorIs(t, err, pkgerrors.ErrInvalidAmount)
	})
}

func TestCreditService_LedgerRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := memory.NewStore()
	redisClient := redismocks.NewMockRedisClient(ctrl)
	redisClient.EXPECT().Del(gomock.Any(), "user:1:credits").Return(nil).AnyTimes()
	service := NewCreditService(store.Users(), store.Transactions(), redisClient, &recordingPublisher{})
	ctx := context.Background()

	user := seedUser(t, store, "alice", "13800138000", 100)

	_, err := service.Consume(ctx, user.ID, 150, "too much", "")
	assert.ErrorIs(t, err, pkgerrors.ErrInsufficientCredits)
	assert.Equal(t, int64(100), balanceOf(t, store, user.ID))

	_, err = service.Consume(ctx, user.ID, 40, "image generation", "")
	require.NoError(t, err)
	_, err = service.Refund(ctx, user.ID, 40, "refund")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balanceOf(t, store, user.ID))

	items, pagination, err := service.GetTransactions(ctx, user.ID, models.NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.TypeRefund, items[0].Type)
	assert.Equal(t, int64(100), items[0].Balance)
	assert.Equal(t, models.TypeConsume, items[1].Type)
	assert.Equal(t, int64(60), items[1].Balance)
	assert.Equal(t, 2, pagination.Total)
	assert.Equal(t, 1, pagination.TotalPages)

	assert.Len(t, service.Packages(), 4)
}
