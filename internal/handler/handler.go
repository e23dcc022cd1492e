package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/nanobananary/studio-api/internal/infrastructure/auth"
	"github.com/nanobananary/studio-api/internal/models"
	service "github.com/nanobananary/studio-api/internal/services"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/samber/lo"
)

// maxBodyBytes fits several base64 images in one request.
const maxBodyBytes = 50 << 20

// HealthChecker reports the state of the storage backend.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}

type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Credits    service.CreditService
	Payments   service.PaymentService
	History    service.HistoryService
	Generation service.GenerationService
}

type Handler struct {
	auth         service.AuthService
	users        service.UserService
	credits      service.CreditService
	payments     service.PaymentService
	history      service.HistoryService
	generation   service.GenerationService
	health       HealthChecker
	notifySecret string
}

func NewHandler(s Services, health HealthChecker, notifySecret string) *Handler {
	return &Handler{
		auth:         s.Auth,
		users:        s.Users,
		credits:      s.Credits,
		payments:     s.Payments,
		history:      s.History,
		generation:   s.Generation,
		health:       health,
		notifySecret: notifySecret,
	}
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/auth/register", h.Register).Methods("POST")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/auth/send-verification-code", h.SendVerificationCode).Methods("POST")
	r.HandleFunc("/auth/reset-password", h.ResetPassword).Methods("POST")
	r.HandleFunc("/credits/packages", h.GetPackages).Methods("GET")
	r.HandleFunc("/payment/{method}/notify", h.PaymentNotify).Methods("POST")
	r.HandleFunc("/transformations", h.GetTransformations).Methods("GET")
}

func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/auth/logout", h.Logout).Methods("POST")

	r.HandleFunc("/user/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/user/profile", h.UpdateProfile).Methods("PUT")
	r.HandleFunc("/user/password", h.ChangePassword).Methods("PUT")

	r.HandleFunc("/history", h.ListHistory).Methods("GET")
	r.HandleFunc("/history", h.SaveHistory).Methods("POST")
	r.HandleFunc("/history/{id}", h.GetHistory).Methods("GET")
	r.HandleFunc("/history/{id}", h.DeleteHistory).Methods("DELETE")

	r.HandleFunc("/credits/balance", h.GetBalance).Methods("GET")
	r.HandleFunc("/credits/charge", h.Charge).Methods("POST")
	r.HandleFunc("/credits/consume", h.Consume).Methods("POST")
	r.HandleFunc("/credits/transactions", h.GetTransactions).Methods("GET")

	r.HandleFunc("/payment/order/{orderId}", h.GetOrder).Methods("GET")
	r.HandleFunc("/payment/order/{orderId}/cancel", h.CancelOrder).Methods("POST")

	r.HandleFunc("/generate/image", h.GenerateImage).Methods("POST")
	r.HandleFunc("/generate/video", h.StartVideo).Methods("POST")
	r.HandleFunc("/generate/video/{jobId}", h.GetVideoJob).Methods("GET")
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "storage", h.health.Name(), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"status":  "degraded",
			"storage": h.health.Name(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  "ok",
		"storage": h.health.Name(),
	})
}

type errorStatus struct {
	err    error
	status int
}

var errorStatuses = []errorStatus{
	{pkgerrors.ErrInvalidInput, http.StatusBadRequest},
	{pkgerrors.ErrInvalidAmount, http.StatusBadRequest},
	{pkgerrors.ErrPromptRequired, http.StatusBadRequest},
	{pkgerrors.ErrImageRequired, http.StatusBadRequest},
	{pkgerrors.ErrUnsupportedPaymentMethod, http.StatusBadRequest},
	{pkgerrors.ErrInvalidCode, http.StatusBadRequest},
	{pkgerrors.ErrInvalidPassword, http.StatusBadRequest},
	{pkgerrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{pkgerrors.ErrUnauthorized, http.StatusUnauthorized},
	{pkgerrors.ErrInvalidNotifySecret, http.StatusUnauthorized},
	{pkgerrors.ErrInsufficientCredits, http.StatusPaymentRequired},
	{pkgerrors.ErrUserDisabled, http.StatusForbidden},
	{pkgerrors.ErrUserNotFound, http.StatusNotFound},
	{pkgerrors.ErrOrderNotFound, http.StatusNotFound},
	{pkgerrors.ErrHistoryNotFound, http.StatusNotFound},
	{pkgerrors.ErrTransformationNotFound, http.StatusNotFound},
	{pkgerrors.ErrJobNotFound, http.StatusNotFound},
	{pkgerrors.ErrUsernameExists, http.StatusConflict},
	{pkgerrors.ErrPhoneExists, http.StatusConflict},
	{pkgerrors.ErrEmailExists, http.StatusConflict},
	{pkgerrors.ErrRequestAlreadyProcessed, http.StatusConflict},
	{pkgerrors.ErrOrderNotPending, http.StatusConflict},
	{pkgerrors.ErrContentBlocked, http.StatusUnprocessableEntity},
	{pkgerrors.ErrCodeRateLimited, http.StatusTooManyRequests},
	{pkgerrors.ErrGenerationFailed, http.StatusBadGateway},
}

// statusFor maps a service error to the HTTP status and the message shown to clients.
func statusFor(err error) (int, string) {
	if errors.Is(err, pkgerrors.ErrInvalidCredentials) {
		return http.StatusUnauthorized, pkgerrors.ErrInvalidCredentials.Error()
	}
	match, ok := lo.Find(errorStatuses, func(e errorStatus) bool { return errors.Is(err, e.err) })
	if !ok {
		return http.StatusInternalServerError, pkgerrors.ErrInternal.Error()
	}
	return match.status, err.Error()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeOK wraps the payload fields in the success envelope.
func writeOK(w http.ResponseWriter, status int, fields map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeMessage(w, status, message)
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "user not authenticated")
		return 0, false
	}
	return userID, true
}

func pageFromQuery(r *http.Request) models.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return models.NewPage(page, limit)
}
