package utils

import "strings"

// Site roles, ordered by privilege. "editor" may publish media but has no
// admin surface.
const (
	RoleOwner     = "owner"
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
	RoleEditor    = "editor"
	RoleUser      = "user"
)

var publisherRoles = map[string]struct{}{
	RoleOwner:     {},
	RoleAdmin:     {},
	RoleDeveloper: {},
	RoleEditor:    {},
}

// IsPublisherRole reports whether the role may create and manage audio
// uploads.
func IsPublisherRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	_, ok := publisherRoles[role]
	return ok
}
