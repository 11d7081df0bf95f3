package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims are the claims of a token issued by the identity provider.
type IdentityClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email,omitempty"`
	OrgIDs []string `json:"org_ids"`
	jwt.RegisteredClaims
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID    string   `json:"user_id"`
	TenantIDs []string `json:"tenant_ids"`
}
