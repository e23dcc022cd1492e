package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nanobananary/studio-api/internal/models"
	service "github.com/nanobananary/studio-api/internal/services"
)

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Username        *string `json:"username"`
		Phone           *string `json:"phone"`
		Email           *string `json:"email"`
		AvatarURL       *string `json:"avatarUrl"`
		CurrentPassword string  `json:"currentPassword"`
		NewPassword     string  `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, service.ProfileInput{
		ProfileUpdate: models.ProfileUpdate{
			Username:  req.Username,
			Phone:     req.Phone,
			Email:     req.Email,
			AvatarURL: req.AvatarURL,
		},
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"message": "profile updated", "user": user})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"message": "password changed"})
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	items, pagination, err := h.history.List(r.Context(), userID, pageFromQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"history": items, "pagination": pagination})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	item, err := h.history.Get(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"item": item})
}

func (h *Handler) SaveHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.HistoryItem
	if !decode(w, r, &req) {
		return
	}

	item, err := h.history.Save(r.Context(), userID, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]interface{}{"item": item})
}

func (h *Handler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.history.Delete(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"message": "history item deleted"})
}
