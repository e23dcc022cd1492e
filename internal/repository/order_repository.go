package repository

import (
	"context"

	"github.com/nanobananary/studio-api/internal/models"
)

//go:generate mockgen -source=order_repository.go -destination=mocks/mock_order_repository.go -package=mocks

type OrderRepository interface {
	Create(ctx context.Context, order *models.ChargeOrder) error
	GetByID(ctx context.Context, id string) (*models.ChargeOrder, error)
	// UpdateStatus changes the status only if the order is still pending.
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, paymentID string) (*models.ChargeOrder, error)
}
