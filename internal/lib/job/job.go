// Package job provides background job processing using Asynq.
//
// Asynq is a Redis-backed job queue:
//   - Tasks are enqueued (producer) via asynq.Client.
//   - A server runs workers that process those tasks (consumer).
//   - A scheduler enqueues periodic maintenance tasks on a cron-like
//     schedule.
package job

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/kterra/authbridge/internal/config"
	"github.com/kterra/authbridge/internal/lib/email"
	"github.com/rs/zerolog"
)

// IndexSweeper prunes stale session bookkeeping. Implemented by the
// token service; declared here so the job package does not depend on it.
type IndexSweeper interface {
	SweepUserIndexes(ctx context.Context) (int, error)
}

// JobService holds the Asynq client (enqueue), server (worker
// execution), and scheduler (periodic tasks), plus the dependencies the
// task handlers need.
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	server    *asynq.Server
	scheduler *asynq.Scheduler

	email   *email.Client
	sweeper IndexSweeper
	logger  *zerolog.Logger
}

// NewJobService creates a JobService wired to Redis from cfg.
//
// Queue weights distribute the 10 workers across queues by ratio, so
// critical tasks get the bulk of the worker share under load.
func NewJobService(logger *zerolog.Logger, cfg *config.Config, sweeper IndexSweeper) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	scheduler := asynq.NewScheduler(redisOpt, nil)

	return &JobService{
		Client:    client,
		server:    server,
		scheduler: scheduler,
		email:     email.NewClient(cfg, logger),
		sweeper:   sweeper,
		logger:    logger,
	}
}

// Start registers task handlers, starts the worker server, and starts
// the periodic scheduler. Both asynq Start calls are non-blocking.
func (j *JobService) Start() error {
	// ServeMux is like HTTP routing, but for task types.
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcome, j.handleWelcomeEmailTask)
	mux.HandleFunc(TaskSessionSweep, j.handleSessionSweepTask)

	j.logger.Info().Msg("starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	// Hourly prune of expired refresh-token index entries. Registration
	// failures are logged rather than fatal: the sweep is maintenance,
	// the worker queue is not.
	task, err := NewSessionSweepTask()
	if err == nil {
		_, err = j.scheduler.Register("@every 1h", task)
	}
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to register session sweep schedule")
	} else if err := j.scheduler.Start(); err != nil {
		j.logger.Error().Err(err).Msg("failed to start job scheduler")
	}

	return nil
}

// Stop gracefully stops the scheduler and worker server, then closes the
// enqueue client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.scheduler.Shutdown()
	j.server.Shutdown()
	j.Client.Close()
}
