package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ninetyone/TodoApp/internal/auth"
	"github.com/ninetyone/TodoApp/internal/handler/dto"
	"github.com/ninetyone/TodoApp/internal/middleware"
	"github.com/ninetyone/TodoApp/internal/service"
)

// TodoHandler handles HTTP requests for todo operations. Every operation is
// scoped to the authenticated caller.
type TodoHandler struct {
	svc    *service.TodoService
	logger *slog.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(svc *service.TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /todo.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req dto.CreateTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	todo, err := h.svc.Create(r.Context(), userID, req.Text)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("todo_created",
		"todo_id", todo.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.TodoEnvelope{Todo: dto.ToTodoResponse(todo)})
}

// List handles GET /todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	todos, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTodoListEnvelope(todos))
}

// Get handles GET /todo/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	todo, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TodoEnvelope{Todo: dto.ToTodoResponse(todo)})
}

// Update handles PATCH /todo/{id}.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req dto.UpdateTodoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	todo, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), userID, req.Patch())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("todo_updated",
		"todo_id", todo.ID,
		"completed", todo.Completed,
	)

	writeJSON(w, http.StatusOK, dto.TodoEnvelope{Todo: dto.ToTodoResponse(todo)})
}

// Delete handles DELETE /todo/{id}. The removed todo is echoed back.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	todo, err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("todo_deleted", "todo_id", todo.ID)

	writeJSON(w, http.StatusOK, dto.TodoEnvelope{Todo: dto.ToTodoResponse(todo)})
}

// handleServiceError maps service errors to HTTP responses.
func (h *TodoHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		writeError(w, http.StatusNotFound, "TODO_NOT_FOUND", "Todo not found")
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", verr.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid input")
	default:
		h.logger.Error("todo_request_failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusBadRequest, "REQUEST_FAILED", "Request could not be completed")
	}
}
