package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to make cross-origin requests.
	// Entries like "https://*.example.com" match any subdomain.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// ExposedHeaders must include x-auth or browsers hide the session token.
	ExposedHeaders []string
	MaxAge         int
}

// DefaultCORSConfig returns defaults for the todo API.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type",
			AuthHeader,
			RequestIDHeader,
			"Accept",
			"Accept-Language",
		},
		ExposedHeaders: []string{
			AuthHeader,
			RequestIDHeader,
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		MaxAge: 86400, // 24 hours
	}
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing.
// Disallowed origins get no CORS headers, and their preflights get 403.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	exact := make(map[string]bool, len(cfg.AllowedOrigins))
	var wildcards []wildcardOrigin
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.ToLower(origin)
		if scheme, host, ok := strings.Cut(origin, "://*."); ok {
			wildcards = append(wildcards, wildcardOrigin{scheme: scheme + "://", suffix: "." + host})
			continue
		}
		exact[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")

			if !isOriginAllowed(strings.ToLower(origin), exact, wildcards) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			if exposed != "" {
				w.Header().Set("Access-Control-Expose-Headers", exposed)
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				if maxAge != "" {
					w.Header().Set("Access-Control-Max-Age", maxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type wildcardOrigin struct {
	scheme string
	suffix string
}

// isOriginAllowed matches origin against exact entries and subdomain
// wildcards. "https://*.example.com" matches "https://a.example.com" but not
// "https://example.com" or "https://notexample.com".
func isOriginAllowed(origin string, exact map[string]bool, wildcards []wildcardOrigin) bool {
	if exact[origin] {
		return true
	}
	for _, wc := range wildcards {
		if !strings.HasPrefix(origin, wc.scheme) || !strings.HasSuffix(origin, wc.suffix) {
			continue
		}
		sub := strings.TrimSuffix(strings.TrimPrefix(origin, wc.scheme), wc.suffix)
		if sub != "" && !strings.Contains(sub, "/") {
			return true
		}
	}
	return false
}
