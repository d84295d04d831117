package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chronotracker/chronotracker-api/internal"
)

// Claims carried by access tokens. The subject mirrors UserID.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenGeneratorAPI issues and verifies access tokens.
type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret []byte
	AccessTokenTTL    time.Duration
	Issuer            string
}

func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret: []byte(secret),
		AccessTokenTTL:    ttl,
		Issuer:            "chronotracker",
	}
}

// TokenResponse is what the token command prints.
type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
	UserID      int64         `json:"user_id"`
	Role        internal.Role `json:"role"`
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
