package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nanobananary/studio-api/internal/models"
	service "github.com/nanobananary/studio-api/internal/services"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/shopspring/decimal"
)

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	balance, err := h.credits.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"credits": balance})
}

func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
		RequestID   string `json:"requestId"`
	}
	if !decode(w, r, &req) {
		return
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = r.Header.Get("Idempotency-Key")
	}

	tx, err := h.credits.Consume(r.Context(), userID, req.Amount, req.Description, requestID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{
		"message":     "credits consumed",
		"credits":     tx.Balance,
		"transaction": tx,
	})
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, pagination, err := h.credits.GetTransactions(r.Context(), userID, pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"transactions": items, "pagination": pagination})
}

func (h *Handler) GetPackages(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, map[string]interface{}{"packages": h.credits.Packages()})
}

func (h *Handler) Charge(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount        decimal.Decimal      `json:"amount"`
		Credits       int64                `json:"credits"`
		PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	}
	if !decode(w, r, &req) {
		return
	}

	res, err := h.payments.CreateChargeOrder(r.Context(), userID, service.ChargeInput{
		Amount:        req.Amount,
		Credits:       req.Credits,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	fields := map[string]interface{}{
		"message": "charge order created",
		"order":   res.Order,
	}
	if res.PaymentURL != "" {
		fields["paymentUrl"] = res.PaymentURL
	}
	if res.QRCodeURL != "" {
		fields["qrCodeUrl"] = res.QRCodeURL
	}
	if res.Balance != nil {
		fields["credits"] = *res.Balance
	}
	writeOK(w, http.StatusCreated, fields)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	order, err := h.payments.GetOrder(r.Context(), userID, mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"order": order})
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	order, err := h.payments.CancelOrder(r.Context(), userID, mux.Vars(r)["orderId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"message": "order cancelled", "order": order})
}

// PaymentNotify receives provider callbacks authenticated by the shared secret header.
func (h *Handler) PaymentNotify(w http.ResponseWriter, r *http.Request) {
	method := models.PaymentMethod(mux.Vars(r)["method"])
	if !method.Valid() {
		writeError(w, r, pkgerrors.ErrUnsupportedPaymentMethod)
		return
	}
	secret := r.Header.Get("X-Payment-Secret")
	if h.notifySecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.notifySecret)) != 1 {
		slog.Warn("payment notification rejected", "method", method, "remote", r.RemoteAddr)
		writeError(w, r, pkgerrors.ErrInvalidNotifySecret)
		return
	}

	var req models.PaymentNotification
	if !decode(w, r, &req) {
		return
	}
	order, err := h.payments.HandleNotification(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"order": order})
}
