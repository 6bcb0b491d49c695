package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// AuthIface defines the JWT operations used by the middleware and the gRPC
// interceptors.
type AuthIface interface {
	BuildJWTString(username string, superuser bool) (string, string, error)
	ParseClaims(c *http.Cookie) (*Claims, error)
	ParseRawJWT(tokenString string) (*Claims, error)
}

// Claims are the claims of an admin token.
type Claims struct {
	// Embedded RegisteredClaims provides the standard expiry and token id.
	jwt.RegisteredClaims
	// Username is the admin user the token was issued to.
	Username string `json:"username"`
	// IsSuperuser grants access to every report.
	IsSuperuser bool `json:"is_superuser"`
}

// TokenExp is how long an admin token stays valid.
const TokenExp = time.Hour * 24

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token or claims")

// Auth signs and verifies admin tokens with an HMAC secret.
type Auth struct {
	secret []byte
}

// NewAuth creates an Auth signing with secret.
func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// BuildJWTString signs a token for username. It returns the token and its id.
func (a *Auth) BuildJWTString(username string, superuser bool) (string, string, error) {
	if len(a.secret) == 0 {
		return "", "", fmt.Errorf("auth secret is not configured")
	}

	id := uuid.New().String()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExp)),
		},
		Username:    username,
		IsSuperuser: superuser,
	})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", "", err
	}

	return tokenString, id, nil
}

// ParseClaims verifies the token stored in cookie c.
func (a *Auth) ParseClaims(c *http.Cookie) (*Claims, error) {
	if c == nil {
		return nil, ErrInvalidToken
	}
	return a.ParseRawJWT(c.Value)
}

// ParseRawJWT verifies tokenString and returns its claims.
func (a *Auth) ParseRawJWT(tokenString string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
