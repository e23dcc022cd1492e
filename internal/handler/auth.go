package handler

import (
	"net/http"

	service "github.com/nanobananary/studio-api/internal/services"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username        string `json:"username"`
		Phone           string `json:"phone"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !decode(w, r, &req) {
		return
	}

	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:        req.Username,
		Phone:           req.Phone,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusCreated, map[string]interface{}{
		"message": "registration successful",
		"token":   res.Token,
		"user":    res.User,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoginType        string `json:"loginType"`
		Identifier       string `json:"identifier"`
		Password         string `json:"password"`
		VerificationCode string `json:"verificationCode"`
	}
	if !decode(w, r, &req) {
		return
	}

	res, err := h.auth.Login(r.Context(), service.LoginInput{
		LoginType:        req.LoginType,
		Identifier:       req.Identifier,
		Password:         req.Password,
		VerificationCode: req.VerificationCode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, map[string]interface{}{
		"message": "login successful",
		"token":   res.Token,
		"user":    res.User,
	})
}

func (h *Handler) SendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		Email string `json:"email"`
		Type  string `json:"type"`
	}
	if !decode(w, r, &req) {
		return
	}
	target := req.Phone
	if target == "" {
		target = req.Email
	}

	code, err := h.auth.SendVerificationCode(r.Context(), target, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}

	fields := map[string]interface{}{"message": "verification code sent"}
	if code != "" {
		fields["code"] = code
	}
	writeOK(w, http.StatusOK, fields)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone            string `json:"phone"`
		Email            string `json:"email"`
		VerificationCode string `json:"verificationCode"`
		NewPassword      string `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}
	target := req.Phone
	if target == "" {
		target = req.Email
	}

	if err := h.auth.ResetPassword(r.Context(), target, req.VerificationCode, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"message": "password reset"})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"message": "logged out"})
}
