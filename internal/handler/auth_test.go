package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/readshelf/library-api/internal/domain/user"
	"github.com/readshelf/library-api/internal/handler/middleware"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/readshelf/library-api/internal/service"
	"github.com/readshelf/library-api/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository implements user.Repository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newAuthRouter(users *MockUserRepository) (*gin.Engine, *service.AuthService) {
	logger := zap.NewNop()
	authService := service.NewAuthService(users, testJWTConfig(), logger)
	authHandler := NewAuthHandler(authService, logger)

	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	router.POST("/api/v1/auth/login", authHandler.Login)
	return router, authService
}

func storedUser(t *testing.T, username, password string) *user.User {
	t.Helper()

	hash, err := util.HashPassword(password)
	require.NoError(t, err)
	return &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         user.RoleMember,
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	users := new(MockUserRepository)
	router, authService := newAuthRouter(users)

	u := storedUser(t, "reader", "correct horse battery")
	users.On("FindByUsername", mock.Anything, "reader").Return(u, nil)

	body := `{"username":"reader","password":"correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), resp.ExpiresAt, 5*time.Second)

	claims, err := authService.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.Subject)
	assert.Equal(t, "reader", claims.Username)
	assert.Equal(t, string(user.RoleMember), claims.Role)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	users := new(MockUserRepository)
	router, _ := newAuthRouter(users)

	u := storedUser(t, "reader", "correct horse battery")
	users.On("FindByUsername", mock.Anything, "reader").Return(u, nil)

	body := `{"username":"reader","password":"wrong password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestAuthHandler_Login_UnknownUser(t *testing.T) {
	users := new(MockUserRepository)
	router, _ := newAuthRouter(users)

	users.On("FindByUsername", mock.Anything, "ghost").Return(nil, ierr.ErrUserNotFound)

	body := `{"username":"ghost","password":"whatever12"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	users := new(MockUserRepository)
	router, _ := newAuthRouter(users)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
}
