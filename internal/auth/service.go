package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chronotracker/chronotracker-api/internal"
	"github.com/chronotracker/chronotracker-api/internal/user"
)

// UserLookup resolves the account behind a token subject.
type UserLookup interface {
	GetByID(ctx context.Context, userID int64) (*user.User, error)
}

type Service struct {
	tokens TokenGeneratorAPI
	users  UserLookup
	logger *slog.Logger
}

func NewService(tokens TokenGeneratorAPI, users UserLookup, logger *slog.Logger) *Service {
	return &Service{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// Authenticate turns a bearer token into the actor the request runs as.
// The role always comes from the users table, never from the token.
func (s *Service) Authenticate(ctx context.Context, token string) (internal.Actor, error) {
	if token == "" {
		return internal.Actor{}, internal.ErrMissingToken
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return internal.Actor{}, internal.ErrTokenExpired
		}
		return internal.Actor{}, internal.ErrInvalidToken
	}

	u, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return internal.Actor{}, err
	}
	return u.Actor(), nil
}

// IssueToken signs an access token for an active account.
func (s *Service) IssueToken(ctx context.Context, userID int64) (TokenResponse, error) {
	u, err := s.activeUser(ctx, userID)
	if err != nil {
		return TokenResponse{}, err
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(u.ID)
	if err != nil {
		s.logger.Error("failed to sign access token", "error", err, "user_id", u.ID)
		return TokenResponse{}, internal.NewInternalError("failed to sign access token", err)
	}
	s.logger.Info("access token issued", "user_id", u.ID, "expires_at", expiresAt)

	return TokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		UserID:      u.ID,
		Role:        u.Role,
	}, nil
}

func (s *Service) activeUser(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if internal.IsNotFound(err) {
			s.logger.Warn("token subject has no account", "user_id", userID)
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActiveUser() {
		return nil, internal.ErrUserInactive
	}
	if !u.Role.Valid() {
		s.logger.Warn("account has an unknown role", "user_id", u.ID, "role", u.Role)
		return nil, internal.ErrInvalidToken
	}
	return u, nil
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID int64) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(j.AccessTokenTTL)

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.AccessTokenSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.AccessTokenSecret, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
