package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kensho/repoqa/internal/forge"
	"github.com/kensho/repoqa/internal/service"
	"github.com/kensho/repoqa/internal/vectorstore"
)

type handlers struct {
	svc    *service.Service
	logger *slog.Logger
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "repoqa: retrieval-augmented QA for GitHub repositories",
		"cors_enabled": true,
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handlers) buildEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req service.BuildRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.svc.BuildIndex(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) query(w http.ResponseWriter, r *http.Request) {
	var req service.QueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.svc.Query(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) summarize(w http.ResponseWriter, r *http.Request) {
	var req service.SummarizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.svc.Summarize(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeError maps the error taxonomy onto HTTP status codes.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, forge.ErrUpstream):
		status = http.StatusBadGateway
	case errors.Is(err, vectorstore.ErrInsufficientCapacity):
		status = http.StatusInsufficientStorage
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	} else {
		h.logger.Warn("request rejected", "status", status, "error", err)
	}

	writeJSON(w, status, map[string]any{
		"error":  err.Error(),
		"status": status,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid request body: " + err.Error(),
			"status": http.StatusBadRequest,
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
