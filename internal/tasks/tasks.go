package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeStatsRefresh = "stats:refresh"
)

type StatsRefreshPayload struct{}

func NewStatsRefreshTask(opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(StatsRefreshPayload{})
	if err != nil {
		return nil, err
	}

	uniqueOpt := asynq.Unique(10 * time.Minute)
	allOpts := append(opts, uniqueOpt)

	return asynq.NewTask(TypeStatsRefresh, payloadBytes, allOpts...), nil
}
