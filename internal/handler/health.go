package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type HealthHandler struct {
	db     *pgxpool.Pool
	redis  *redis.Client
	logger *zap.Logger
}

func NewHealthHandler(db *pgxpool.Pool, redis *redis.Client, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redis,
		logger: logger.Named("HealthHandler"),
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK

	postgresStatus := "ok"
	if err := h.db.Ping(c.Request.Context()); err != nil {
		postgresStatus = "error"
		status = http.StatusServiceUnavailable
		h.logger.Error("Health check: PostgreSQL ping failed", zap.Error(err))
	}

	redisStatus := "ok"
	if err := h.redis.Ping(c.Request.Context()).Err(); err != nil {
		redisStatus = "error"
		status = http.StatusServiceUnavailable
		h.logger.Error("Health check: Redis ping failed", zap.Error(err))
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"dependencies": gin.H{
			"postgres": postgresStatus,
			"redis":    redisStatus,
		},
	})
}
