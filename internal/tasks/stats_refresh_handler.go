package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// StatsRefresher recomputes the catalog summary and stores it in the cache.
type StatsRefresher interface {
	Refresh(ctx context.Context) error
}

type StatsRefreshHandler struct {
	stats  StatsRefresher
	logger *zap.Logger
}

func NewStatsRefreshHandler(stats StatsRefresher, logger *zap.Logger) *StatsRefreshHandler {
	return &StatsRefreshHandler{
		stats:  stats,
		logger: logger.Named("StatsRefreshHandler"),
	}
}

func (h *StatsRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeStatsRefresh {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p StatsRefreshPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal payload for stats refresh task", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v", err)
	}

	h.logger.Info("Processing stats refresh task...")

	if err := h.stats.Refresh(ctx); err != nil {
		h.logger.Error("Stats refresh failed", zap.Error(err))
		return fmt.Errorf("stats refresh failed: %w", err)
	}

	h.logger.Info("Stats refresh task finished")
	return nil
}
