package memory

import (
	"context"
	"log/slog"
	"sort"

	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
)

type HistoryRepository struct {
	s *Store
}

func (r *HistoryRepository) Create(_ context.Context, item *models.HistoryItem) error {
	if item == nil {
		return pkgerrors.ErrNilHistoryItem
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item.CreatedAt = r.s.now()
	stored := *item
	r.s.history[item.ID] = &stored
	r.s.dirty = true

	slog.Info("history item created", "method", "Create", "history_id", item.ID, "user_id", item.UserID, "type", item.Type)
	return nil
}

func (r *HistoryRepository) GetByID(_ context.Context, userID int64, id string) (*models.HistoryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.history[id]
	if !ok || item.UserID != userID {
		return nil, pkgerrors.ErrHistoryNotFound
	}
	found := *item
	return &found, nil
}

func (r *HistoryRepository) ListByUser(_ context.Context, userID int64, page models.Page) ([]models.HistoryItem, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []models.HistoryItem
	for _, item := range r.s.history {
		if item.UserID == userID {
			all = append(all, *item)
		}
	}
	// newest first; equal timestamps fall back to id so pages stay stable
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, page), len(all), nil
}

func (r *HistoryRepository) Delete(_ context.Context, userID int64, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.history[id]
	if !ok || item.UserID != userID {
		return pkgerrors.ErrHistoryNotFound
	}
	delete(r.s.history, id)
	r.s.dirty = true

	slog.Info("history item deleted", "method", "Delete", "history_id", id, "user_id", userID)
	return nil
}
