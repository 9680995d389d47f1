package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peteski22/cloverbridge/internal/clover"
	"github.com/peteski22/cloverbridge/internal/config"
	"github.com/peteski22/cloverbridge/internal/hubspot"
	"github.com/peteski22/cloverbridge/internal/storage"
	"github.com/peteski22/cloverbridge/internal/sync"
)

// app is a fully wired sync process.
type app struct {
	logger     *slog.Logger
	reports    *storage.ReportStore
	service    *sync.Service
	settings   *config.Settings
	watermarks *storage.Watermarks
}

// newApp builds the clients, stores and sync service described by settings.
func newApp(ctx context.Context, settings *config.Settings, logger *slog.Logger) (*app, error) {
	clients, err := newAWSClients(ctx, settings)
	if err != nil {
		return nil, err
	}

	cloverTokens, err := tokenSource("clover", settings.Clover.Credential, clients)
	if err != nil {
		return nil, err
	}
	hubspotTokens, err := tokenSource("hubspot", settings.HubSpot.Credential, clients)
	if err != nil {
		return nil, err
	}

	source, err := clover.NewClient(clover.Config{
		MerchantID:  settings.Clover.MerchantID,
		TokenSource: cloverTokens,
	},
		clover.WithBaseURL(settings.Clover.BaseURL),
		clover.WithEnrichmentConcurrency(settings.Sync.Concurrency),
		clover.WithLogger(logger),
		clover.WithOrderEnrichment(settings.Clover.EnrichOrders),
	)
	if err != nil {
		return nil, fmt.Errorf("creating clover client: %w", err)
	}

	dest, err := hubspot.NewClient(hubspot.Config{
		TokenSource: hubspotTokens,
	},
		hubspot.WithBaseURL(settings.HubSpot.APIBaseURL),
		hubspot.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating hubspot client: %w", err)
	}

	a := &app{
		logger:     logger,
		settings:   settings,
		watermarks: storage.NewWatermarks(),
	}

	var sink sync.ReportSink
	if table := settings.DynamoDB.ReportsTable; table != "" {
		a.reports, err = storage.NewReportStore(clients.dynamodb, table)
		if err != nil {
			return nil, fmt.Errorf("creating report store: %w", err)
		}
		sink = &reportSink{merchantID: settings.Clover.MerchantID, store: a.reports}
	}

	a.service, err = sync.New(sync.Config{
		DealDefaults: settings.DealDefaults,
		Destination:  dest,
		Logger:       logger,
		ReportSink:   sink,
		Source:       source,
		Sync:         settings.Sync,
		Watermarks:   a.watermarks,
	})
	if err != nil {
		return nil, fmt.Errorf("creating sync service: %w", err)
	}

	return a, nil
}
