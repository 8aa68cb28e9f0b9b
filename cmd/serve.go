package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/divisionAI-co/d5-management-system-sub002/internal/api"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/config"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/execution"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/jobqueue"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/llm"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/logging"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/registry"
	"github.com/divisionAI-co/d5-management-system-sub002/internal/store"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the d5actions API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (trace, debug, info, warn, error)",
				Value: "info",
			},
			&cli.BoolFlag{
				Name:  "pretty-logs",
				Usage: "Human-readable console logging",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	logging.Setup(c.String("log-level"), c.Bool("pretty-logs"))

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := store.Open(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Bootstrap(db); err != nil {
		return err
	}

	ctx := context.Background()

	entities := store.NewEntityStore(db)
	actions := store.NewActionStore(db)
	executions := store.NewExecutionStore(db)
	activities := store.NewActivityRecorder(db)
	reg := registry.New(entities, entities)

	invoker, err := llm.NewGoogleAI(ctx, llm.Config{
		APIKey:            cfg.AI.APIKey,
		DefaultModel:      cfg.AI.Model,
		MaxTokens:         cfg.AI.MaxTokens,
		RequestsPerSecond: cfg.AI.RequestsPerSecond,
	})
	if err != nil {
		return err
	}

	service := execution.NewService(reg, invoker, actions, executions, entities, activities)

	var queue api.BulkQueue
	if cfg.Jobs.Enabled {
		jq, err := jobqueue.NewJobQueue(ctx, cfg.Database.URL, service)
		if err != nil {
			return err
		}
		if err := jq.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := jq.Stop(context.Background()); err != nil {
				log.Error().Err(err).Msg("Failed to stop job queue")
			}
		}()
		queue = jq
	}

	log.Info().Str("address", cfg.Server.Address).Msg("Starting d5actions API server")

	server := api.NewServer(cfg.Server.Address, service, reg, actions, executions, queue)
	return server.Start()
}
