package cors

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Headers granted to allowed cross-origin callers. The granted origin is
// always the caller's exact origin, never a wildcard, and credentials are
// never permitted.
const (
	allowMethods = "POST, OPTIONS"
	allowHeaders = "Authorization, X-Client-Info, Apikey, Content-Type"
	maxAge       = "86400" // permission cache lifetime: 24 hours
)

// DevOrigins is the fallback allow-list used when ALLOWED_ORIGINS is unset.
var DevOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Policy is an immutable origin allow-list. It is resolved from
// configuration once per request and passed in explicitly, so the check
// itself reads no ambient state.
type Policy struct {
	allowed map[string]struct{}
}

// NewPolicy builds a policy from an explicit origin list.
// An empty list falls back to the development origins.
func NewPolicy(origins []string) Policy {
	if len(origins) == 0 {
		origins = DevOrigins
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = struct{}{}
		}
	}
	return Policy{allowed: allowed}
}

// ResolvePolicy parses a comma-separated origin list, as carried by the
// ALLOWED_ORIGINS environment variable.
func ResolvePolicy(raw string) Policy {
	var origins []string
	if raw != "" {
		origins = strings.Split(raw, ",")
	}
	return NewPolicy(origins)
}

// Allows reports whether the given origin is on the allow-list.
func (p Policy) Allows(origin string) bool {
	_, ok := p.allowed[origin]
	return ok
}

// grant writes the permission headers for an allowed origin.
func grant(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", allowHeaders)
	h.Set("Access-Control-Max-Age", maxAge)
	h.Add("Vary", "Origin")
}

// Middleware enforces the origin policy for every request.
//
// Requests without an Origin header pass through with no grant headers:
// server-to-server calls are not a browser CORS scenario. Preflights are
// always answered 200; a disallowed origin simply gets no permission
// headers, so neither the allow-list nor an error detail leaks. Real
// requests from a disallowed origin are rejected with 403.
func Middleware(source func() Policy, log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			policy := source()

			allowed := policy.Allows(origin)
			if origin != "" && allowed {
				grant(w.Header(), origin)
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
				return
			}

			if origin != "" && !allowed {
				log.Warn("request from disallowed origin rejected",
					"origin", origin,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusForbidden, "Origin not allowed")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
