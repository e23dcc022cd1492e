package repository

import (
	"context"

	"github.com/nanobananary/studio-api/internal/models"
)

//go:generate mockgen -source=transaction_repository.go -destination=mocks/mock_transaction_repository.go -package=mocks

// TransactionRepository is the credit ledger. Every write changes users.credits
// and appends the matching entry atomically.
type TransactionRepository interface {
	// Apply adds tx.Amount to the user's credits and records tx with the
	// resulting balance. It fails with ErrInsufficientCredits when the
	// balance would go negative.
	Apply(ctx context.Context, tx *models.CreditTransaction) error
	// SettleOrder moves a pending order to paid and credits its owner.
	SettleOrder(ctx context.Context, orderID, paymentID, description string) (*models.ChargeOrder, *models.CreditTransaction, error)
	ListByUser(ctx context.Context, userID int64, page models.Page) ([]models.CreditTransaction, int, error)
}
