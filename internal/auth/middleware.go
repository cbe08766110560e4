package auth

import (
	"log"
	"net/http"
	"strings"
)

// Middleware authenticates requests with a bearer JWT and enforces the
// role policy before handing off to the next handler.
type Middleware struct {
	secret []byte
	policy Policy
	logger *log.Logger
}

func NewMiddleware(secret []byte, policy Policy, logger *log.Logger) *Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return &Middleware{secret: secret, policy: policy, logger: logger}
}

// Wrap returns a handler that authenticates and authorizes before next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.policy.Exempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearer(r)
		if token == "" {
			http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
			return
		}

		claims, err := ParseJWT(token, m.secret)
		if err != nil {
			m.logger.Printf("auth: rejected token path=%s: %v", r.URL.Path, err)
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}

		role, _ := NormalizeRole(claims.Role)
		if !RoleAtLeast(role, m.policy.RequiredRole(r)) {
			http.Error(w, `{"error":"insufficient role"}`, http.StatusForbidden)
			return
		}

		ctx := WithIdentity(r.Context(), claims.Subject, claims.Username, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
