package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const TokenTypeBridge TokenType = "bridge"

// Claims identify the host window holding a bridge token.
type Claims struct {
	jwt.RegisteredClaims

	WindowID  string    `json:"window_id"`
	TokenType TokenType `json:"token_type"`
}
