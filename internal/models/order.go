package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
	OrderCancelled OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentAlipay PaymentMethod = "alipay"
	PaymentWechat PaymentMethod = "wechat"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentAlipay || m == PaymentWechat
}

type ChargeOrder struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Credits       int64           `json:"credits"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        OrderStatus     `json:"status"`
	PaymentID     string          `json:"paymentId,omitempty"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Settled reports whether the order has already granted its credits.
func (o *ChargeOrder) Settled() bool {
	return o.Status == OrderPaid || o.Status == OrderCompleted
}

type ChargePackage struct {
	ID      string          `json:"id"`
	Price   decimal.Decimal `json:"price"`
	Credits int64           `json:"credits"`
	Popular bool            `json:"popular,omitempty"`
}

// PaymentNotification is what a provider reports about an order, either
// through the notify endpoint or the payment-notifications topic.
type PaymentNotification struct {
	OrderID   string      `json:"orderId"`
	PaymentID string      `json:"paymentId"`
	Status    OrderStatus `json:"status"`
}
