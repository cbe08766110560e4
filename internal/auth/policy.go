package auth

import (
	"net/http"
	"strings"
)

// Policy decides the minimum role for each API route.
type Policy struct{}

// Exempt reports whether a path skips authentication entirely.
func (Policy) Exempt(path string) bool {
	switch path {
	case "/healthz", "/metrics":
		return true
	}
	return false
}

// RequiredRole returns the minimum role needed for the request.
// Writes to the ledger need an accountant, reads a viewer, and
// exports an admin.
func (Policy) RequiredRole(r *http.Request) Role {
	path := r.URL.Path

	if strings.Contains(path, "/export.") {
		return RoleAdmin
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return RoleAccountant
	default:
		return RoleViewer
	}
}
