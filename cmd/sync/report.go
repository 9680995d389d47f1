package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/peteski22/cloverbridge/internal/storage"
	"github.com/peteski22/cloverbridge/internal/sync"
)

// reportSink stores cycle reports in the DynamoDB report history.
type reportSink struct {
	merchantID string
	store      *storage.ReportStore
}

// SaveReport implements sync.ReportSink.
func (s *reportSink) SaveReport(ctx context.Context, report *sync.Report) error {
	entry, err := reportEntry(s.merchantID, report)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, entry)
}

// reportEntry converts a cycle report into a stored history entry.
func reportEntry(merchantID string, report *sync.Report) (storage.ReportEntry, error) {
	summary := report.Summary()

	body, err := json.Marshal(summary)
	if err != nil {
		return storage.ReportEntry{}, fmt.Errorf("marshaling report: %w", err)
	}

	return storage.ReportEntry{
		Body:       string(body),
		CycleID:    report.CycleID,
		Failed:     report.Count(sync.OutcomeFailed),
		FinishedAt: report.FinishedAt,
		MerchantID: merchantID,
		Phase:      string(report.Phase),
		Written:    report.Count(sync.OutcomeCreated) + report.Count(sync.OutcomeUpdated),
	}, nil
}
