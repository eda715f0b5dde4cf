package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ninetyone/TodoApp/internal/auth"
	"github.com/ninetyone/TodoApp/internal/metrics"
	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/service"
)

// AuthHeader carries the session token on requests and on sign-in responses.
const AuthHeader = "X-Auth"

// TokenResolver resolves a session token to the user currently holding it.
type TokenResolver interface {
	FindByValidToken(ctx context.Context, token string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger      *slog.Logger
	Credentials TokenResolver
	Metrics     metrics.Recorder
}

// Authenticate returns a middleware that admits only requests whose x-auth
// token is validly signed and still held by its user. The resolved user and
// token are attached to the request context for the handlers.
//
// Every rejection is a 401 with an empty body. The token is never logged.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(reason string, err error) {
				attrs := []any{
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				}
				if err != nil && reason == "lookup_error" {
					attrs = append(attrs, slog.String("error", err.Error()))
				}
				cfg.Logger.Warn("authentication failed", attrs...)
				recorder.IncAuthRejected()
				w.WriteHeader(http.StatusUnauthorized)
			}

			token := r.Header.Get(AuthHeader)
			if token == "" {
				reject("missing_token", nil)
				return
			}

			user, err := cfg.Credentials.FindByValidToken(r.Context(), token)
			if err != nil {
				reject(rejectionReason(err), err)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), &auth.Identity{User: user, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, service.ErrTokenRevoked):
		return "revoked_token"
	case errors.Is(err, auth.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, service.ErrAuthFailure):
		return "auth_failure"
	default:
		return "lookup_error"
	}
}
