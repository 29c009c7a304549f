package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/trackcast/internal/app"
	"github.com/okian/trackcast/internal/domain/types"
)

const defaultMaxBodyBytes = 64 << 20

// PredictOption configures the PredictHandler.
type PredictOption func(*PredictHandler)

// WithMaxBodyBytes caps the request body size.
func WithMaxBodyBytes(n int64) PredictOption {
	return func(h *PredictHandler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps         PredictDependencies
	maxBodyBytes int64
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies, opts ...PredictOption) *PredictHandler {
	h := &PredictHandler{deps: deps, maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	// Keep integral identifiers exact.
	dec.UseNumber()
	var req types.PredictRequest
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Test == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing test batch")))
		return
	}

	if req.BatchID == "" {
		req.BatchID = r.Header.Get(RequestIDHeader)
	}

	resp, err := h.deps.Predict(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, service.ErrInvalidBatch), errors.Is(err, service.ErrBatchTooLarge):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}
