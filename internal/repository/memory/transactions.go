package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nanobananary/studio-api/internal/infrastructure/observability"
	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
)

type TransactionRepository struct {
	s *Store
}

func validateEntry(tx *models.CreditTransaction) error {
	if tx == nil {
		return pkgerrors.ErrNilTransaction
	}
	switch tx.Type {
	case models.TypeConsume:
		if tx.Amount >= 0 {
			return fmt.Errorf("%w: consume amount must be negative", pkgerrors.ErrInvalidAmount)
		}
	case models.TypeCharge, models.TypeRefund:
		if tx.Amount <= 0 {
			return pkgerrors.ErrInvalidAmount
		}
	default:
		return pkgerrors.ErrInvalidTransactionType
	}
	return nil
}

// applyLocked performs the balance update and the ledger append. The caller holds s.mu.
func (s *Store) applyLocked(tx *models.CreditTransaction) error {
	u, ok := s.users[tx.UserID]
	if !ok {
		return pkgerrors.ErrUserNotFound
	}
	if u.Credits+tx.Amount < 0 {
		return pkgerrors.ErrInsufficientCredits
	}

	now := s.now()
	u.Credits += tx.Amount
	u.UpdatedAt = now

	tx.ID = s.nextTxID
	tx.Balance = u.Credits
	tx.CreatedAt = now
	s.nextTxID++
	s.transactions = append(s.transactions, *tx)
	s.dirty = true
	return nil
}

func (r *TransactionRepository) Apply(_ context.Context, tx *models.CreditTransaction) error {
	if err := validateEntry(tx); err != nil {
		return err
	}

	r.s.mu.Lock()
	err := r.s.applyLocked(tx)
	r.s.mu.Unlock()
	if err != nil {
		return err
	}

	observability.LedgerEntries.WithLabelValues(string(tx.Type)).Inc()
	slog.Info("ledger entry applied", "method", "Apply", "id", tx.ID, "user_id", tx.UserID, "type", tx.Type, "amount", tx.Amount, "balance", tx.Balance)
	return nil
}

func (r *TransactionRepository) SettleOrder(_ context.Context, orderID, paymentID, description string) (*models.ChargeOrder, *models.CreditTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order, ok := r.s.orders[orderID]
	if !ok {
		return nil, nil, pkgerrors.ErrOrderNotFound
	}
	if order.Status != models.OrderPending {
		return nil, nil, pkgerrors.ErrOrderNotPending
	}

	entry := &models.CreditTransaction{
		UserID:      order.UserID,
		Type:        models.TypeCharge,
		Amount:      order.Credits,
		Description: description,
		OrderID:     order.ID,
	}
	if err := r.s.applyLocked(entry); err != nil {
		return nil, nil, err
	}

	paidAt := entry.CreatedAt
	order.Status = models.OrderPaid
	order.PaymentID = paymentID
	order.PaidAt = &paidAt
	order.UpdatedAt = paidAt

	observability.LedgerEntries.WithLabelValues(string(models.TypeCharge)).Inc()
	slog.Info("order settled", "method", "SettleOrder", "order_id", order.ID, "user_id", order.UserID, "credits", order.Credits, "balance", entry.Balance)
	settled := *order
	return &settled, entry, nil
}

func (r *TransactionRepository) ListByUser(_ context.Context, userID int64, page models.Page) ([]models.CreditTransaction, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []models.CreditTransaction
	for _, tx := range r.s.transactions {
		if tx.UserID == userID {
			all = append(all, tx)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page), len(all), nil
}

func paginate[T any](items []T, page models.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
