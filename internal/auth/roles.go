package auth

import "strings"

// Role governs what a caller may do against the ledger API.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleAccountant Role = "accountant"
	RoleAdmin      Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer:     1,
	RoleAccountant: 2,
	RoleAdmin:      3,
}

// NormalizeRole maps a raw claim value to a known role.
func NormalizeRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := roleRank[r]
	return r, ok
}

// RoleAtLeast reports whether have meets or exceeds want.
func RoleAtLeast(have, want Role) bool {
	return roleRank[have] >= roleRank[want]
}
