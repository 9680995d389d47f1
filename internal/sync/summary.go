package sync

import (
	"time"

	"github.com/peteski22/cloverbridge/internal/entity"
)

// Summary is a serializable view of a Report.
type Summary struct {
	Associations AssociationSummary `json:"associations" yaml:"associations"`
	CycleID      string             `json:"cycle_id" yaml:"cycle_id"`
	DryRun       bool               `json:"dry_run" yaml:"dry_run"`
	Error        string             `json:"error,omitempty" yaml:"error,omitempty"`
	FinishedAt   time.Time          `json:"finished_at" yaml:"finished_at"`
	Phase        Phase              `json:"phase" yaml:"phase"`
	StartedAt    time.Time          `json:"started_at" yaml:"started_at"`
	Types        []TypeSummary      `json:"types" yaml:"types"`
}

// TypeSummary counts outcomes for one entity type.
type TypeSummary struct {
	Created    int            `json:"created" yaml:"created"`
	Cursor     string         `json:"cursor,omitempty" yaml:"cursor,omitempty"`
	EntityType entity.Type    `json:"entity_type" yaml:"entity_type"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
	Failed     int            `json:"failed" yaml:"failed"`
	Failures   []FailureEntry `json:"failures,omitempty" yaml:"failures,omitempty"`
	Fetched    int            `json:"fetched" yaml:"fetched"`
	Skipped    int            `json:"skipped" yaml:"skipped"`
	Status     TypeStatus     `json:"status" yaml:"status"`
	Updated    int            `json:"updated" yaml:"updated"`
}

// AssociationSummary counts association outcomes.
type AssociationSummary struct {
	Failed   int            `json:"failed" yaml:"failed"`
	Failures []FailureEntry `json:"failures,omitempty" yaml:"failures,omitempty"`
	Linked   int            `json:"linked" yaml:"linked"`
	Skipped  int            `json:"skipped" yaml:"skipped"`
}

// FailureEntry names a failed or skipped item and why.
type FailureEntry struct {
	Reason   string `json:"reason" yaml:"reason"`
	SourceID string `json:"source_id" yaml:"source_id"`
}

// Summary builds the serializable view of r.
func (r *Report) Summary() Summary {
	s := Summary{
		CycleID:    r.CycleID,
		DryRun:     r.DryRun,
		FinishedAt: r.FinishedAt,
		Phase:      r.Phase,
		StartedAt:  r.StartedAt,
		Types:      make([]TypeSummary, 0, len(r.Types)),
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}

	for _, tr := range r.Types {
		ts := TypeSummary{
			Created:    tr.Count(OutcomeCreated),
			Cursor:     tr.Cursor,
			EntityType: tr.EntityType,
			Failed:     tr.Count(OutcomeFailed),
			Fetched:    tr.Fetched,
			Skipped:    tr.Count(OutcomeSkipped),
			Status:     tr.Status,
			Updated:    tr.Count(OutcomeUpdated),
		}
		if tr.Err != nil {
			ts.Error = tr.Err.Error()
		}
		for _, rec := range tr.Records {
			if rec.Outcome == OutcomeFailed && rec.Err != nil {
				ts.Failures = append(ts.Failures, FailureEntry{Reason: rec.Err.Error(), SourceID: rec.SourceID})
			}
		}
		s.Types = append(s.Types, ts)
	}

	for _, a := range r.Associations {
		switch a.Outcome {
		case OutcomeCreated:
			s.Associations.Linked++
		case OutcomeSkipped:
			s.Associations.Skipped++
		case OutcomeFailed:
			s.Associations.Failed++
			if a.Err != nil {
				s.Associations.Failures = append(s.Associations.Failures, FailureEntry{Reason: a.Err.Error(), SourceID: a.OrderID})
			}
		}
	}

	return s
}
