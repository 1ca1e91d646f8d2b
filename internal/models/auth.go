package models

import "github.com/golang-jwt/jwt/v5"

// Role is the caller role carried in access tokens.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleScheduler Role = "SCHEDULER"
	RoleViewer    Role = "VIEWER"
)

// JWTClaims represent access token claims.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}
