package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rakshak-ai/internal/callers"
)

// CallerStore records callers. *callers.Store satisfies it.
type CallerStore interface {
	Touch(ctx context.Context, mobileNo string) (*callers.Caller, error)
}

// CallersHandler records the numbers that call the helpline.
type CallersHandler struct {
	Store CallerStore
	Log   *slog.Logger
}

type callerRequest struct {
	MobileNo string `json:"mobile_no"`
}

// Touch handles POST /api/callers.
func (h *CallersHandler) Touch(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !decode(w, r, &req) {
		return
	}

	caller, err := h.Store.Touch(r.Context(), req.MobileNo)
	if errors.Is(err, callers.ErrInvalidMobile) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		if h.Log != nil {
			h.Log.Error("caller upsert failed", "err", err)
		}
		writeError(w, http.StatusInternalServerError, "Failed to record caller")
		return
	}
	writeJSON(w, http.StatusOK, caller)
}
