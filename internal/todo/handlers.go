package todo

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go_todo/internal/httpjson"
)

const (
	msgNotFound      = "Todo not found"
	msgDeleted       = "Todo deleted successfully"
	msgInternalError = "Internal server error"
)

type Handler struct {
	repo   Repository
	logger *log.Logger
}

func NewHandler(repo Repository, logger *log.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Register mounts the todo routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/users/{userId}/todos", func(r chi.Router) {
		r.Get("/", h.handleListTodos)
		r.Post("/", h.handleCreateTodo)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetTodo)
			r.Patch("/", h.handleUpdateTodo)
			r.Delete("/", h.handleDeleteTodo)
		})
	})
}

func (h *Handler) handleListTodos(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDParam(r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	todos, err := h.repo.List(r.Context(), userID)
	if err != nil {
		h.writeRepoError(w, r, err, "list todos")
		return
	}
	httpjson.Write(w, h.logger, http.StatusOK, todos)
}

func (h *Handler) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	userID, id, err := readTodoParams(r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	todo, err := h.repo.Get(r.Context(), userID, id)
	if err != nil {
		h.writeRepoError(w, r, err, "get todo")
		return
	}
	httpjson.Write(w, h.logger, http.StatusOK, todo)
}

func (h *Handler) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDParam(r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}
	input, err := DecodeCreateRequest(body)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	todo, err := h.repo.Create(r.Context(), userID, input.Title)
	if err != nil {
		h.writeRepoError(w, r, err, "create todo")
		return
	}
	httpjson.Write(w, h.logger, http.StatusCreated, todo)
}

func (h *Handler) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, id, err := readTodoParams(r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}
	patch, err := DecodeUpdateRequest(body)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	todo, err := h.repo.Update(r.Context(), userID, id, patch)
	if err != nil {
		h.writeRepoError(w, r, err, "update todo")
		return
	}
	httpjson.Write(w, h.logger, http.StatusOK, todo)
}

func (h *Handler) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, id, err := readTodoParams(r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), userID, id); err != nil {
		h.writeRepoError(w, r, err, "delete todo")
		return
	}
	httpjson.Write(w, h.logger, http.StatusOK, MessageResponse{Message: msgDeleted})
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		httpjson.Error(w, h.logger, http.StatusBadRequest, ve.Message)
		return
	}
	httpjson.Error(w, h.logger, http.StatusBadRequest, msgInvalidBody)
}

func (h *Handler) writeRepoError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, ErrNotFound) {
		httpjson.Error(w, h.logger, http.StatusNotFound, msgNotFound)
		return
	}
	h.logger.Error(action+" failed", "err", err, "request_id", middleware.GetReqID(r.Context()))
	httpjson.Error(w, h.logger, http.StatusInternalServerError, msgInternalError)
}

func readTodoParams(r *http.Request) (string, int64, error) {
	userID, err := UserIDParam(r)
	if err != nil {
		return "", 0, err
	}
	id, err := ParseTodoID(pathParam(r, "id"))
	if err != nil {
		return "", 0, err
	}
	return userID, id, nil
}

// UserIDParam reads and validates the {userId} path segment.
func UserIDParam(r *http.Request) (string, error) {
	return ParseUserID(pathParam(r, "userId"))
}

// pathParam undoes the escaping chi leaves in place when it routed on
// the raw path.
func pathParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return value
	}
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, httpjson.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, invalid("", msgInvalidBody)
	}
	return body, nil
}
