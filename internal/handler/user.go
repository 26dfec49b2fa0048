package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readshelf/library-api/internal/handler/dto"
	"github.com/readshelf/library-api/internal/handler/middleware"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/readshelf/library-api/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	service *service.UserService
	logger  *zap.Logger
}

func NewUserHandler(service *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.Named("UserHandler"),
	}
}

type RegisterRequest struct {
	Username        string  `json:"username" binding:"required,alphanum,min=3,max=32"`
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string  `json:"password_confirm" binding:"required,eqfield=Password"`
	DisplayName     *string `json:"display_name" binding:"omitempty,max=128"`
}

func (h *UserHandler) Register(c *gin.Context) {
	h.logger.Debug("Received registration request")

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate registration body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrInvalidArgument, err))
		return
	}

	createdUser, err := h.service.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.DisplayName)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewUserResponse(createdUser))
}

func (h *UserHandler) GetMe(c *gin.Context) {
	claims := middleware.GetUserClaims(c)
	if claims == nil {
		_ = c.Error(fmt.Errorf("%w: missing authentication claims", ierr.ErrUnauthorized))
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		_ = c.Error(ierr.ErrTokenInvalidClaims)
		return
	}

	u, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(u))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	claims := middleware.GetUserClaims(c)
	if claims == nil {
		_ = c.Error(fmt.Errorf("%w: missing authentication claims", ierr.ErrUnauthorized))
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		_ = c.Error(ierr.ErrTokenInvalidClaims)
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate profile update body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrInvalidArgument, err))
		return
	}

	updatedUser, err := h.service.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(updatedUser))
}
