package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/nanobananary/studio-api/internal/models"
	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	got []models.PaymentNotification
	err error
}

func (h *recordingHandler) HandleNotification(ctx context.Context, n models.PaymentNotification) (*models.ChargeOrder, error) {
	h.got = append(h.got, n)
	if h.err != nil {
		return nil, h.err
	}
	return &models.ChargeOrder{ID: n.OrderID, Status: n.Status}, nil
}

func TestConsumer_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("valid notification", func(t *testing.T) {
		h := &recordingHandler{}
		c := &Consumer{handler: h}
		c.handle(ctx, []byte(`{"orderId":"ORDER_1_abcdef12","paymentId":"p-1","status":"paid"}`))

		assert.Len(t, h.got, 1)
		assert.Equal(t, "ORDER_1_abcdef12", h.got[0].OrderID)
		assert.Equal(t, models.OrderPaid, h.got[0].Status)
	})

	t.Run("malformed payload", func(t *testing.T) {
		h := &recordingHandler{}
		c := &Consumer{handler: h}
		c.handle(ctx, []byte(`not json`))
		assert.Empty(t, h.got)
	})

	t.Run("missing order id", func(t *testing.T) {
		h := &recordingHandler{}
		c := &Consumer{handler: h}
		c.handle(ctx, []byte(`{"status":"paid"}`))
		assert.Empty(t, h.got)
	})

	t.Run("handler error is swallowed", func(t *testing.T) {
		h := &recordingHandler{err: errors.New("order not found")}
		c := &Consumer{handler: h}
		c.handle(ctx, []byte(`{"orderId":"ORDER_2_abcdef12","status":"failed"}`))
		assert.Len(t, h.got, 1)
	})
}
