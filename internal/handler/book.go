package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/readshelf/library-api/internal/handler/dto"
	"github.com/readshelf/library-api/internal/handler/middleware"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/readshelf/library-api/internal/service"
	"go.uber.org/zap"
)

type BookHandler struct {
	service *service.BookService
	logger  *zap.Logger
}

func NewBookHandler(service *service.BookService, logger *zap.Logger) *BookHandler {
	return &BookHandler{
		service: service,
		logger:  logger.Named("BookHandler"),
	}
}

func (h *BookHandler) Create(c *gin.Context) {
	h.logger.Debug("Received request to create book")

	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate request body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrInvalidArgument, err))
		return
	}

	createdBook, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewBookResponse(createdBook))
}

func (h *BookHandler) List(c *gin.Context) {
	h.logger.Debug("Received request to list books")

	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Failed to bind or validate query parameters", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrInvalidArgument, err))
		return
	}

	books, totalCount, err := h.service.List(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	bookResponses := make([]*dto.BookResponse, len(books))
	for i, b := range books {
		bookResponses[i] = dto.NewBookResponse(b)
	}

	c.JSON(http.StatusOK, dto.PaginatedBooksResponse{
		Books:      bookResponses,
		TotalCount: totalCount,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
}

func (h *BookHandler) GetByID(c *gin.Context) {
	idStr := c.Param("id")
	h.logger.Debug("Received request to get book by ID", zap.String("id_param", idStr))

	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid UUID format received", zap.String("id_param", idStr))
		_ = c.Error(fmt.Errorf("%w: invalid book ID format", ierr.ErrInvalidArgument))
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBookResponse(b))
}

func (h *BookHandler) Update(c *gin.Context) {
	idStr := c.Param("id")
	h.logger.Debug("Received request to update book", zap.String("id_param", idStr))

	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid UUID format for update", zap.String("id_param", idStr))
		_ = c.Error(fmt.Errorf("%w: invalid book ID format", ierr.ErrInvalidArgument))
		return
	}

	var req dto.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate update request body", zap.String("id", idStr), zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrInvalidArgument, err))
		return
	}

	updatedBook, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBookResponse(updatedBook))
}

func (h *BookHandler) Delete(c *gin.Context) {
	idStr := c.Param("id")
	h.logger.Debug("Received request to delete book", zap.String("id_param", idStr))

	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid UUID format for delete", zap.String("id_param", idStr))
		_ = c.Error(fmt.Errorf("%w: invalid book ID format", ierr.ErrInvalidArgument))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *BookHandler) Rate(c *gin.Context) {
	idStr := c.Param("id")
	h.logger.Debug("Received request to rate book", zap.String("id_param", idStr))

	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid UUID format for rating", zap.String("id_param", idStr))
		_ = c.Error(fmt.Errorf("%w: invalid book ID format", ierr.ErrInvalidArgument))
		return
	}

	var req dto.RateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate rating request body", zap.String("id", idStr), zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrInvalidArgument, err))
		return
	}

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

	avg, count, err := h.service.Rate(c.Request.Context(), id, userID, req.Value)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.RatingResponse{
		BookID:        id,
		AverageRating: avg,
		RatingsCount:  count,
	})
}

func (h *BookHandler) ReplaceGenres(c *gin.Context) {
	idStr := c.Param("id")
	h.logger.Debug("Received request to replace book genres", zap.String("id_param", idStr))

	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid UUID format for genre replacement", zap.String("id_param", idStr))
		_ = c.Error(fmt.Errorf("%w: invalid book ID format", ierr.ErrInvalidArgument))
		return
	}

	var req dto.ReplaceGenresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate genre replacement body", zap.String("id", idStr), zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrInvalidArgument, err))
		return
	}

	updatedBook, err := h.service.ReplaceGenres(c.Request.Context(), id, req.Genres)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBookResponse(updatedBook))
}
