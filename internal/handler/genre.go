package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readshelf/library-api/internal/domain/genre"
	"github.com/readshelf/library-api/internal/handler/dto"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/readshelf/library-api/internal/service"
	"go.uber.org/zap"
)

type GenreHandler struct {
	service *service.GenreService
	logger  *zap.Logger
}

func NewGenreHandler(service *service.GenreService, logger *zap.Logger) *GenreHandler {
	return &GenreHandler{
		service: service,
		logger:  logger.Named("GenreHandler"),
	}
}

func (h *GenreHandler) List(c *gin.Context) {
	h.logger.Debug("Received request to list genres")

	genres, err := h.service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	genreResponses := make([]*dto.GenreResponse, len(genres))
	for i, g := range genres {
		genreResponses[i] = dto.NewGenreResponse(g)
	}

	c.JSON(http.StatusOK, genreResponses)
}

func (h *GenreHandler) Create(c *gin.Context) {
	h.logger.Debug("Received request to create genre")

	var req dto.CreateGenreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind or validate genre body", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrInvalidArgument, err))
		return
	}

	createdGenre, err := h.service.Create(c.Request.Context(), req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewGenreResponse(&genre.GenreWithCount{Genre: *createdGenre}))
}
