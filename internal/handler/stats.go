package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/readshelf/library-api/internal/service"
	"go.uber.org/zap"
)

type StatsHandler struct {
	service *service.StatsService
	logger  *zap.Logger
}

func NewStatsHandler(service *service.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger.Named("StatsHandler"),
	}
}

// Summary godoc
// @Summary      Get catalog statistics
// @Description  Retrieves aggregated statistics about books, users and ratings.
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.StatsSummaryResponse "Catalog summary data"
// @Failure      500 {object} dto.ErrorResponse "Internal Server Error"
// @Router       /stats/summary [get]
func (h *StatsHandler) Summary(c *gin.Context) {
	h.logger.Debug("Received request for stats summary")

	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
