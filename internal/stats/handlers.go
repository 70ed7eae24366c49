package stats

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go_todo/internal/httpjson"
	"go_todo/internal/todo"
)

type Handler struct {
	store  *Store
	logger *log.Logger
}

func NewHandler(store *Store, logger *log.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/users/{userId}/stats", h.handleStats)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := todo.UserIDParam(r)
	if err != nil {
		httpjson.Error(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.store.Summary(r.Context(), userID)
	if err != nil {
		h.logger.Error("load stats failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
		httpjson.Error(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	httpjson.Write(w, h.logger, http.StatusOK, summary)
}
