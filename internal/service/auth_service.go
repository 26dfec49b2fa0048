package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/readshelf/library-api/internal/config"
	"github.com/readshelf/library-api/internal/domain/user"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/readshelf/library-api/internal/util"
	"go.uber.org/zap"
)

// Claims carried by access tokens issued at login.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserID parses the subject claim as the user's UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type AuthService struct {
	users  user.Repository
	cfg    *config.JWTConfig
	logger *zap.Logger
}

func NewAuthService(users user.Repository, cfg *config.JWTConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		cfg:    cfg,
		logger: logger.Named("AuthService"),
	}
}

// Login verifies the credentials and issues a signed access token. Unknown
// usernames and wrong passwords produce the same error so callers cannot
// probe for accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ierr.ErrUserNotFound) {
			s.logger.Debug("Login attempt for unknown username", zap.String("username", username))
			return "", time.Time{}, ierr.ErrInvalidCredentials
		}
		return "", time.Time{}, fmt.Errorf("repository error during login: %w", err)
	}

	if err := util.CheckPassword(u.PasswordHash, password); err != nil {
		s.logger.Debug("Login attempt with wrong password", zap.String("username", username))
		return "", time.Time{}, ierr.ErrInvalidCredentials
	}

	token, expiresAt, err := s.issueToken(u)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	s.logger.Info("User logged in", zap.String("user_id", u.ID.String()), zap.String("username", u.Username))
	return token, expiresAt, nil
}

func (s *AuthService) issueToken(u *user.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.Expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.cfg.Issuer,
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: u.Username,
		Role:     string(u.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ValidateToken parses and verifies an access token string.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		s.logger.Debug("Token parsing failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ierr.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ierr.ErrTokenInvalidClaims
	}

	return claims, nil
}
