package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nanobananary/studio-api/internal/models"
	"github.com/nanobananary/studio-api/internal/repository"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

type HistoryService interface {
	Save(ctx context.Context, userID int64, item *models.HistoryItem) (*models.HistoryItem, error)
	Get(ctx context.Context, userID int64, id string) (*models.HistoryItem, error)
	List(ctx context.Context, userID int64, page models.Page) ([]models.HistoryItem, models.Pagination, error)
	Delete(ctx context.Context, userID int64, id string) error
}

type historyService struct {
	historyRepo repository.HistoryRepository
}

func NewHistoryService(historyRepo repository.HistoryRepository) *historyService {
	return &historyService{historyRepo: historyRepo}
}

func (s *historyService) Save(ctx context.Context, userID int64, item *models.HistoryItem) (*models.HistoryItem, error) {
	tracer := otel.Tracer("history-service")
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()

	if item == nil {
		return nil, pkgerrors.ErrNilHistoryItem
	}
	if item.Type != models.HistoryImage && item.Type != models.HistoryVideo {
		span.SetStatus(codes.Error, "invalid type")
		return nil, fmt.Errorf("%w: type must be image or video", pkgerrors.ErrInvalidInput)
	}
	if item.TransformationKey == "" {
		span.SetStatus(codes.Error, "missing transformation key")
		return nil, fmt.Errorf("%w: transformationKey required", pkgerrors.ErrInvalidInput)
	}

	item.ID = uuid.NewString()
	item.UserID = userID
	if err := s.historyRepo.Create(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history save failed")
		slog.Error("failed to save history item", "user_id", userID, "error", err)
		return nil, err
	}

	slog.Info("history item saved", "user_id", userID, "history_id", item.ID, "type", item.Type)
	return item, nil
}

func (s *historyService) Get(ctx context.Context, userID int64, id string) (*models.HistoryItem, error) {
	tracer := otel.Tracer("history-service")
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()

	if !validHistoryID(id) {
		span.SetStatus(codes.Error, "malformed history id")
		return nil, pkgerrors.ErrHistoryNotFound
	}
	item, err := s.historyRepo.GetByID(ctx, userID, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history lookup failed")
		return nil, err
	}
	return item, nil
}

func (s *historyService) List(ctx context.Context, userID int64, page models.Page) ([]models.HistoryItem, models.Pagination, error) {
	tracer := otel.Tracer("history-service")
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	items, total, err := s.historyRepo.ListByUser(ctx, userID, page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history list failed")
		slog.Error("failed to list history", "user_id", userID, "error", err)
		return nil, models.Pagination{}, err
	}
	if items == nil {
		items = []models.HistoryItem{}
	}
	return items, page.Result(total), nil
}

func (s *historyService) Delete(ctx context.Context, userID int64, id string) error {
	tracer := otel.Tracer("history-service")
	ctx, span := tracer.Start(ctx, "Delete")
	defer span.End()

	if !validHistoryID(id) {
		span.SetStatus(codes.Error, "malformed history id")
		return pkgerrors.ErrHistoryNotFound
	}
	if err := s.historyRepo.Delete(ctx, userID, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history delete failed")
		return err
	}
	slog.Info("history item deleted", "user_id", userID, "history_id", id)
	return nil
}

// Ids are UUIDs; anything else cannot exist and must not reach the uuid column.
func validHistoryID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
