package models

import "time"

// CreditTransaction is one append-only ledger entry. Amount is signed,
// Balance is the user's credits right after the entry was applied.
type CreditTransaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	Balance     int64           `json:"balance"`
	Description string          `json:"description"`
	OrderID     string          `json:"orderId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type TransactionType string

const (
	TypeCharge  TransactionType = "charge"
	TypeConsume TransactionType = "consume"
	TypeRefund  TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeCharge, TypeConsume, TypeRefund:
		return true
	}
	return false
}

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func (p Page) Result(total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
