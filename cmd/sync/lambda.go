package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/peteski22/cloverbridge/internal/config"
	"github.com/peteski22/cloverbridge/internal/sync"
)

// startLambda wires the service once per execution environment and serves
// scheduled events. Watermarks live as long as the environment stays warm.
func startLambda(logger *slog.Logger) {
	ctx := context.Background()

	settings, err := config.Load()
	if err != nil {
		logger.ErrorContext(ctx, "invalid configuration", "error", err)
		os.Exit(1)
	}

	a, err := newApp(ctx, settings, logger)
	if err != nil {
		logger.ErrorContext(ctx, "failed to initialize", "error", err)
		os.Exit(1)
	}

	lambda.Start(a.handleScheduledEvent)
}

// handleScheduledEvent runs one cycle per EventBridge schedule tick.
func (a *app) handleScheduledEvent(ctx context.Context, event events.CloudWatchEvent) (sync.Summary, error) {
	a.logger.InfoContext(ctx, "starting sync",
		"event_id", event.ID,
		"detail_type", event.DetailType,
		"scheduled_at", event.Time)

	report, err := a.service.RunCycle(ctx)
	if errors.Is(err, sync.ErrCycleInProgress) {
		a.logger.WarnContext(ctx, "skipping scheduled sync, previous cycle still running")
		return sync.Summary{}, nil
	}
	if report == nil {
		return sync.Summary{}, err
	}

	return report.Summary(), err
}
