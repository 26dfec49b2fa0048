package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/readshelf/library-api/internal/domain/user"
	"github.com/readshelf/library-api/internal/handler/dto"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/readshelf/library-api/internal/util"
	"go.uber.org/zap"
)

type UserService struct {
	repo   user.Repository
	logger *zap.Logger
}

func NewUserService(repo user.Repository, logger *zap.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger.Named("UserService"),
	}
}

// Register creates a member account. Username and email uniqueness is
// enforced by the repository's unique constraints.
func (s *UserService) Register(ctx context.Context, username, email, password string, displayName *string) (*user.User, error) {
	s.logger.Info("Attempting to register a new user", zap.String("username", username))

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := &user.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleMember,
	}
	if displayName != nil && *displayName != "" {
		newUser.DisplayName = sql.NullString{String: *displayName, Valid: true}
	}

	insertedID, err := s.repo.Create(ctx, newUser)
	if err != nil {
		return nil, fmt.Errorf("repository error during registration: %w", err)
	}

	createdUser, err := s.repo.FindByID(ctx, insertedID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created user (id: %s): %w", insertedID, err)
	}

	s.logger.Info("User registered", zap.String("id", createdUser.ID.String()), zap.String("username", createdUser.Username))
	return createdUser, nil
}

func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repository error fetching profile: %w", err)
	}
	return u, nil
}

// UpdateProfile applies partial changes to the caller's account. Changing
// the password requires the current one.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateProfileRequest) (*user.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repository error fetching user for update: %w", err)
	}

	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.DisplayName != nil {
		// An empty string clears the display name.
		u.DisplayName = sql.NullString{String: *req.DisplayName, Valid: *req.DisplayName != ""}
	}

	if req.NewPassword != "" {
		if err := util.CheckPassword(u.PasswordHash, req.CurrentPassword); err != nil {
			return nil, ierr.ErrWrongPassword
		}
		hash, err := util.HashPassword(req.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash new password: %w", err)
		}
		u.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("repository error during profile update: %w", err)
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve updated user (id: %s): %w", id, err)
	}

	s.logger.Info("Profile updated", zap.String("id", id.String()))
	return updated, nil
}
