package memory

import (
	"context"
	"log/slog"

	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
)

type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(_ context.Context, order *models.ChargeOrder) error {
	if order == nil {
		return pkgerrors.ErrNilOrder
	}
	if !order.Amount.IsPositive() || order.Credits <= 0 {
		return pkgerrors.ErrInvalidAmount
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[order.UserID]; !ok {
		return pkgerrors.ErrUserNotFound
	}
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	now := r.s.now()
	order.CreatedAt = now
	order.UpdatedAt = now

	stored := *order
	r.s.orders[order.ID] = &stored
	r.s.dirty = true

	slog.Info("order created", "method", "Create", "order_id", order.ID, "user_id", order.UserID, "amount", order.Amount.StringFixed(2), "credits", order.Credits)
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*models.ChargeOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, pkgerrors.ErrOrderNotFound
	}
	found := *order
	return &found, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id string, status models.OrderStatus, paymentID string) (*models.ChargeOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[id]
	if !ok {
		return nil, pkgerrors.ErrOrderNotFound
	}
	if order.Status != models.OrderPending {
		return nil, pkgerrors.ErrOrderNotPending
	}
	order.Status = status
	if paymentID != "" {
		order.PaymentID = paymentID
	}
	order.UpdatedAt = r.s.now()
	r.s.dirty = true

	slog.Info("order status updated", "method", "UpdateStatus", "order_id", id, "status", status)
	updated := *order
	return &updated, nil
}
