package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/digitalmoneyhouse/dmh/internal/activity"
	"github.com/digitalmoneyhouse/dmh/internal/adapter/http/dto"
	"github.com/digitalmoneyhouse/dmh/internal/domain"
	"github.com/digitalmoneyhouse/dmh/internal/usecase"
)

// ActivityService defines the behavior needed by ActivityHandler.
type ActivityService interface {
	Now() time.Time
	Search(ctx context.Context, session domain.Session, filters activity.FilterState) (*usecase.SearchResult, error)
	GetEntry(ctx context.Context, session domain.Session, id string) (*domain.LedgerEntry, error)
}

// ActivityHandler serves the activity list.
type ActivityHandler struct {
	activityUC ActivityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityUC ActivityService) *ActivityHandler {
	return &ActivityHandler{activityUC: activityUC}
}

// List returns one filtered page of the session user's activity.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	filters, err := dto.ActivityQueryFromValues(r.URL.Query(), h.activityUC.Now().Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity query", err.Error())
		return
	}

	result, err := h.activityUC.Search(r.Context(), session, filters)
	if err != nil {
		writeDomainError(w, r, "failed to load activity", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ActivityFromResult(result))
}

// Get returns a single activity entry.
func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	entry, err := h.activityUC.GetEntry(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get activity entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}
