package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"breeze-console/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	issuer  = "breeze-console"
	keyInfo = "bridge-token"
)

// Manager issues and verifies the bridge tokens that let a host window call
// the shell's IPC endpoints.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager builds a manager from config. Without a configured secret a
// random one is generated, so tokens die with the process.
// The HMAC key is derived from the secret with HKDF-SHA256.
func NewManager(cfg config.BridgeConfig) (*Manager, error) {
	secret := cfg.Secret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("BRIDGE_TTL must be positive")
	}
	key, err := deriveKey([]byte(secret))
	if err != nil {
		return nil, err
	}
	return &Manager{secret: key, ttl: cfg.TTL}, nil
}

func deriveKey(secret []byte) ([]byte, error) {
	h := hkdf.New(sha256.New, secret, nil, []byte(keyInfo))
	out := make([]byte, 32)
	if _, err := io.ReadFull(h, out); err != nil {
		return nil, fmt.Errorf("derive bridge key: %w", err)
	}
	return out, nil
}

func (m *Manager) Issue(now time.Time, windowID string) (string, error) {
	if windowID == "" {
		return "", errors.New("window_id required")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
		WindowID:  windowID,
		TokenType: TokenTypeBridge,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	validator := jwt.NewValidator(
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
	)
	if err := validator.Validate(claims.RegisteredClaims); err != nil {
		return Claims{}, err
	}

	if claims.TokenType != TokenTypeBridge {
		return Claims{}, errors.New("token_type mismatch")
	}
	if claims.WindowID == "" {
		return Claims{}, errors.New("window_id missing")
	}
	return claims, nil
}
