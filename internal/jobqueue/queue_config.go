/*
Package jobqueue configuration - tunable parameters for the River job
queue.

Bulk action runs are model-bound, so worker counts stay low: each worker
holds an outstanding LLM call for most of its life, and provider rate
limits bite long before CPU does. Retry counts are also modest; a bulk
run that failed five times is almost always misconfigured rather than
unlucky, and every retry produces a fresh execution row.
*/
package jobqueue

import (
	"os"
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds all configurable parameters for the job queue.
type QueueConfig struct {
	// MaxWorkers is the number of concurrent bulk runs.
	MaxWorkers int

	// MaxRetries is the maximum retry attempts per job.
	MaxRetries int

	// JobTimeout bounds a single bulk run, model call included.
	JobTimeout time.Duration
}

// DefaultQueueConfig returns the default configuration.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers: 4,
		MaxRetries: 5,
		JobTimeout: 5 * time.Minute,
	}
}

// ProductionQueueConfig returns a configuration for production use.
func ProductionQueueConfig() *QueueConfig {
	config := DefaultQueueConfig()
	config.MaxWorkers = 8
	config.JobTimeout = 10 * time.Minute
	return config
}

// DevelopmentQueueConfig returns a configuration for development.
func DevelopmentQueueConfig() *QueueConfig {
	config := DefaultQueueConfig()
	config.MaxWorkers = 2
	config.MaxRetries = 2
	config.JobTimeout = 2 * time.Minute
	return config
}

// GetQueueConfig returns the configuration for the current environment.
func GetQueueConfig() *QueueConfig {
	switch os.Getenv("APP_ENV") {
	case "production":
		return ProductionQueueConfig()
	case "development":
		return DevelopmentQueueConfig()
	}
	return DefaultQueueConfig()
}

// RiverQueueConfig converts our config to River's queue configuration
// format.
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}

// RiverConfig builds the client configuration, carrying the retry and
// timeout tuning through to River.
func (c *QueueConfig) RiverConfig(workers *river.Workers) *river.Config {
	return &river.Config{
		Queues:      c.RiverQueueConfig(),
		Workers:     workers,
		MaxAttempts: c.MaxRetries,
		JobTimeout:  c.JobTimeout,
	}
}
