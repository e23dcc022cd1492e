package repository

import (
	"context"

	"github.com/nanobananary/studio-api/internal/models"
)

//go:generate mockgen -source=history_repository.go -destination=mocks/mock_history_repository.go -package=mocks

// HistoryRepository scopes every lookup to the owning user.
type HistoryRepository interface {
	Create(ctx context.Context, item *models.HistoryItem) error
	GetByID(ctx context.Context, userID int64, id string) (*models.HistoryItem, error)
	ListByUser(ctx context.Context, userID int64, page models.Page) ([]models.HistoryItem, int, error)
	Delete(ctx context.Context, userID int64, id string) error
}
