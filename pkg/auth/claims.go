package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the identity embedded in a storefront access token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	// JTI doubles as the refresh-session id; a random one is generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to a device.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}
