package auth

import (
	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
