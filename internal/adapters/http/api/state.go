package api

import (
	"errors"
	"net/http"
	"net/url"

	service "github.com/okian/trackcast/internal/app"
	"github.com/okian/trackcast/internal/adapters/repository"
	"github.com/okian/trackcast/internal/domain/model"
)

// StateHandler handles entity state lookups.
type StateHandler struct {
	deps StateDependencies
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps StateDependencies) *StateHandler {
	return &StateHandler{deps: deps}
}

// HandleGetState handles GET /state?gameId=&playId=&nflId= requests.
// Omitted and empty parameters both select the absent component, matching
// how empty cells are read from batches.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_state"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	key := model.Key{
		Game:   param(q, "gameId"),
		Play:   param(q, "playId"),
		Player: param(q, "nflId"),
	}

	view, err := h.deps.State(r.Context(), key)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, view)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

func param(q url.Values, name string) model.Opt[string] {
	return model.Ident(q.Get(name))
}
