/*
Package jobqueue provides a River-based job queue for running bulk action
executions in the background.

For worker counts and retry tuning, see queue_config.go.
*/
package jobqueue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/rs/zerolog/log"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/execution"
	"github.com/divisionAI-co/d5-management-system-sub002/pkg/models"
)

// Runner is the slice of the execution service the worker needs.
type Runner interface {
	Execute(ctx context.Context, req execution.ExecuteRequest) (*models.Execution, error)
}

// BulkActionJobArgs are the arguments for one queued bulk action run.
type BulkActionJobArgs struct {
	ActionID          int64  `json:"action_id"`
	TriggeredByID     int64  `json:"triggered_by_id"`
	ExtraInstructions string `json:"extra_instructions,omitempty"`
}

// Kind returns the job kind for River.
func (BulkActionJobArgs) Kind() string {
	return "bulk_action_run"
}

// BulkActionWorker runs one bulk execution per job. Model failures return
// an error so River's retry policy kicks in; each retry is a brand-new
// execution row.
type BulkActionWorker struct {
	river.WorkerDefaults[BulkActionJobArgs]
	runner Runner
}

// Work performs the bulk action run.
func (w *BulkActionWorker) Work(ctx context.Context, job *river.Job[BulkActionJobArgs]) error {
	args := job.Args

	log.Info().
		Int64("action_id", args.ActionID).
		Int64("job_id", job.ID).
		Msg("Running queued bulk action")

	exec, err := w.runner.Execute(ctx, execution.ExecuteRequest{
		ActionID:          args.ActionID,
		EntityID:          models.BulkEntityID,
		ExtraInstructions: args.ExtraInstructions,
		TriggeredByID:     args.TriggeredByID,
	})
	if err != nil {
		log.Error().Err(err).
			Int64("action_id", args.ActionID).
			Int64("job_id", job.ID).
			Msg("Bulk action run failed")
		return fmt.Errorf("bulk action %d failed: %w", args.ActionID, err)
	}

	log.Info().
		Int64("action_id", args.ActionID).
		Str("execution_id", exec.ID).
		Msg("Bulk action run completed")
	return nil
}

// JobQueue manages the River job queue.
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewJobQueue creates a job queue whose workers run bulk actions through
// the given runner.
func NewJobQueue(ctx context.Context, databaseURL string, runner Runner) (*JobQueue, error) {
	config := GetQueueConfig()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &BulkActionWorker{runner: runner})

	client, err := river.NewClient(riverpgxv5.New(pool), config.RiverConfig(workers))
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers.
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers.
func (jq *JobQueue) Stop(ctx context.Context) error {
	defer jq.pool.Close()
	return jq.client.Stop(ctx)
}

// QueueBulkAction queues one bulk action run.
func (jq *JobQueue) QueueBulkAction(ctx context.Context, actionID, triggeredByID int64, extraInstructions string) error {
	args := BulkActionJobArgs{
		ActionID:          actionID,
		TriggeredByID:     triggeredByID,
		ExtraInstructions: extraInstructions,
	}

	if _, err := jq.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("failed to queue bulk action job: %w", err)
	}
	return nil
}
