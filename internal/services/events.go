package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nanobananary/studio-api/internal/infrastructure/kafka"
	"github.com/nanobananary/studio-api/internal/infrastructure/redis"
	"github.com/nanobananary/studio-api/internal/models"
)

// EventPublisher is satisfied by *kafka.Publisher.
type EventPublisher interface {
	Publish(topic string, key int64, event any)
}

const balanceCacheTTL = 5 * time.Minute

func creditsKey(userID int64) string {
	return fmt.Sprintf("user:%d:credits", userID)
}

// afterLedgerWrite drops the cached balance and announces the entry.
func afterLedgerWrite(ctx context.Context, redisClient redis.RedisClient, events EventPublisher, tx *models.CreditTransaction) {
	if err := redisClient.Del(ctx, creditsKey(tx.UserID)); err != nil {
		slog.Error("failed to invalidate balance cache", "user_id", tx.UserID, "error", err)
	}

	event := map[string]interface{}{
		"event_type":  "credit_transaction",
		"id":          tx.ID,
		"user_id":     tx.UserID,
		"type":        tx.Type,
		"amount":      tx.Amount,
		"balance":     tx.Balance,
		"description": tx.Description,
		"created_at":  tx.CreatedAt.UTC().Format(time.RFC3339),
	}
	if tx.OrderID != "" {
		event["order_id"] = tx.OrderID
	}
	events.Publish(kafka.TopicCreditTransactions, tx.UserID, event)
}
