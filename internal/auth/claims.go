package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Tier is carried in the token so premium gating can short-circuit at the
// edge, but authoritative checks still read the user record.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"user_id"`
	Tier   string `json:"tier"`
}
