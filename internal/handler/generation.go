package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	service "github.com/nanobananary/studio-api/internal/services"
)

func (h *Handler) GetTransformations(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, map[string]interface{}{"transformations": h.generation.Transformations()})
}

func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		TransformationKey string `json:"transformationKey"`
		Prompt            string `json:"prompt"`
		Image             string `json:"image"`
		SecondaryImage    string `json:"secondaryImage"`
		Mask              string `json:"mask"`
		AspectRatio       string `json:"aspectRatio"`
		Enhanced          bool   `json:"enhanced"`
		RequestID         string `json:"requestId"`
	}
	if !decode(w, r, &req) {
		return
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = r.Header.Get("Idempotency-Key")
	}

	out, err := h.generation.GenerateImage(r.Context(), userID, service.ImageInput{
		TransformationKey: req.TransformationKey,
		Prompt:            req.Prompt,
		PrimaryImage:      req.Image,
		SecondaryImage:    req.SecondaryImage,
		Mask:              req.Mask,
		AspectRatio:       req.AspectRatio,
		Enhanced:          req.Enhanced,
		RequestID:         requestID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"result": out, "credits": out.Balance})
}

func (h *Handler) StartVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Prompt      string `json:"prompt"`
		Image       string `json:"image"`
		AspectRatio string `json:"aspectRatio"`
		Enhanced    bool   `json:"enhanced"`
		RequestID   string `json:"requestId"`
	}
	if !decode(w, r, &req) {
		return
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = r.Header.Get("Idempotency-Key")
	}

	job, err := h.generation.StartVideo(r.Context(), userID, service.VideoInput{
		Prompt:      req.Prompt,
		Image:       req.Image,
		AspectRatio: req.AspectRatio,
		Enhanced:    req.Enhanced,
		RequestID:   requestID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusAccepted, map[string]interface{}{"job": job})
}

func (h *Handler) GetVideoJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	job, err := h.generation.GetVideoJob(r.Context(), userID, mux.Vars(r)["jobId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]interface{}{"job": job})
}
