package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/chronotracker/chronotracker-api/internal"
	userDatamodel "github.com/chronotracker/chronotracker-api/internal/core/datamodel/user"
)

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		s.logger.Error("failed to get user by id", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to get user", err)
	}
	return FromDataModel(u), nil
}

// Create provisions an account, or returns the existing one when the email
// is already registered so seeding can be re-run.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(dto.Email))

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return FromDataModel(existing), nil
	case !errors.Is(err, ErrNotFound):
		s.logger.Error("failed to look up user by email", "error", err, "email", email)
		return nil, internal.NewInternalError("failed to look up user", err)
	}

	u := &userDatamodel.User{
		Email:    email,
		Name:     strings.TrimSpace(dto.Name),
		Role:     dto.Role,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", email)
		return nil, internal.NewInternalError("failed to create user", err)
	}
	s.logger.Info("user created", "user_id", u.ID, "role", u.Role)
	return FromDataModel(u), nil
}
