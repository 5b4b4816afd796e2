package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the identity-provider session token issued to signed-in users.
type SessionClaims struct {
	Email          string         `json:"email,omitempty"`
	PublicMetadata map[string]any `json:"public_metadata,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	jwt.RegisteredClaims
}

// UserMetadata mirrors the metadata buckets the identity provider stores per user.
type UserMetadata struct {
	Public  map[string]any `json:"public_metadata"`
	Private map[string]any `json:"private_metadata"`
	Unsafe  map[string]any `json:"unsafe_metadata"`
}

// Principal is the authenticated caller: the verified session plus, when the
// directory lookup is enabled, the user's stored metadata.
type Principal struct {
	UserID string
	Email  string
	User   *UserMetadata
	Claims *SessionClaims
}

// ResolveRole returns the first non-empty role found, checking in order:
// user public, private and unsafe metadata, then the session's public_metadata
// and metadata claims. It returns "" when no location carries a role.
func ResolveRole(p Principal) string {
	var sources []map[string]any
	if p.User != nil {
		sources = append(sources, p.User.Public, p.User.Private, p.User.Unsafe)
	}
	if p.Claims != nil {
		sources = append(sources, p.Claims.PublicMetadata, p.Claims.Metadata)
	}
	for _, src := range sources {
		if role := RoleFrom(src); role != "" {
			return role
		}
	}
	return ""
}

// IsAdmin reports whether the principal's resolved role matches adminRole.
func IsAdmin(p Principal, adminRole string) bool {
	role := ResolveRole(p)
	return role != "" && strings.EqualFold(role, strings.TrimSpace(adminRole))
}

// RoleFrom reads a trimmed string "role" entry from a metadata bucket.
func RoleFrom(meta map[string]any) string {
	if meta == nil {
		return ""
	}
	raw, ok := meta["role"].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(raw)
}
