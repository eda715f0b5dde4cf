package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ninetyone/TodoApp/internal/auth"
	"github.com/ninetyone/TodoApp/internal/handler/dto"
	"github.com/ninetyone/TodoApp/internal/middleware"
	"github.com/ninetyone/TodoApp/internal/service"
)

// UserHandler handles account and session requests.
type UserHandler struct {
	svc    *service.CredentialService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.CredentialService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /user.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, token, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "DUPLICATE_EMAIL", "Email is already registered")
		default:
			h.handleServiceError(w, r, err)
		}
		return
	}

	h.logger.Info("user_registered",
		"user_id", user.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	w.Header().Set(middleware.AuthHeader, token)
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Login handles POST /user/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthFailure) {
			h.logger.Warn("login_failed",
				"ip", r.RemoteAddr,
				"request_id", middleware.GetRequestID(r.Context()),
			)
			writeError(w, http.StatusBadRequest, "AUTH_FAILURE", "Invalid email or password")
			return
		}
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set(middleware.AuthHeader, token)
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Me handles GET /user/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil || id.User == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserResponse(id.User))
}

// Logout handles DELETE /user/me/token. Only the presented token is revoked;
// the user's other sessions stay valid.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil || id.User == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.svc.Logout(r.Context(), id.User.ID, id.Token); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("token_revoked",
		"user_id", id.User.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	w.WriteHeader(http.StatusOK)
}

// DeleteMe handles DELETE /user/me.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil || id.User == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), id.User.ID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("user_deleted",
		"user_id", id.User.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	w.WriteHeader(http.StatusOK)
}

// handleServiceError maps service errors to HTTP responses. Store faults are
// reported as 400 with a generic message.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", verr.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid input")
	default:
		h.logger.Error("user_request_failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusBadRequest, "REQUEST_FAILED", "Request could not be completed")
	}
}

// writeDecodeError reports a body that could not be read as JSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
}
