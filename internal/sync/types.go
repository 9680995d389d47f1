// Package sync replicates Clover merchant data into HubSpot, one incremental cycle at a time.
package sync

import (
	"context"
	"errors"
	"time"

	"github.com/peteski22/cloverbridge/internal/clover"
	"github.com/peteski22/cloverbridge/internal/entity"
	"github.com/peteski22/cloverbridge/internal/hubspot"
)

// ErrCycleInProgress is returned when a cycle is requested while another is running.
var ErrCycleInProgress = errors.New("sync cycle already in progress")

// ErrNoNaturalKey marks a record that cannot be matched in HubSpot and is therefore skipped.
var ErrNoNaturalKey = errors.New("record has no natural key")

// Outcome is the result of replicating one record or association.
type Outcome string

const (
	// OutcomeCreated means a new HubSpot object or association was created.
	OutcomeCreated Outcome = "created"

	// OutcomeFailed means the record could not be replicated.
	OutcomeFailed Outcome = "failed"

	// OutcomeSkipped means the record was deliberately not sent.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeUpdated means an existing HubSpot object was updated.
	OutcomeUpdated Outcome = "updated"
)

// Written reports whether the outcome resolved to a HubSpot object.
func (o Outcome) Written() bool {
	return o == OutcomeCreated || o == OutcomeUpdated
}

// Phase is the stage a cycle is in.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhaseMapping     Phase = "mapping"
	PhaseUpserting   Phase = "upserting"
	PhaseAssociating Phase = "associating"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// TypeStatus summarizes what happened to one entity type in a cycle.
type TypeStatus string

const (
	// StatusAlreadySynced means inventory was skipped because it has been replicated before.
	StatusAlreadySynced TypeStatus = "already_synced"

	// StatusFetchFailed means the page could not be fetched.
	StatusFetchFailed TypeStatus = "fetch_failed"

	// StatusSynced means the page was fetched and every record has an outcome.
	StatusSynced TypeStatus = "synced"
)

// RecordResult is the outcome of replicating one source record.
type RecordResult struct {
	// DestinationID is the HubSpot object ID, set when the outcome is created or updated.
	DestinationID string

	// Duplicates counts additional pre-existing HubSpot objects matching the natural key.
	Duplicates int

	// Err explains a skipped or failed outcome.
	Err error

	// Outcome is what happened to the record.
	Outcome Outcome

	// SourceID is the Clover identifier.
	SourceID string
}

// TypeReport is the outcome of one entity type in a cycle.
type TypeReport struct {
	// Advanced reports whether the watermark moved this cycle.
	Advanced bool

	// Cursor is the watermark after the cycle, if any.
	Cursor string

	// EntityType is the type reported on.
	EntityType entity.Type

	// Err is the fetch error when Status is StatusFetchFailed.
	Err error

	// Fetched is the number of records on the fetched page.
	Fetched int

	// Records holds one result per fetched record, in page order.
	Records []RecordResult

	// Status summarizes the type.
	Status TypeStatus
}

// Count returns how many records had outcome o.
func (r *TypeReport) Count(o Outcome) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Outcome == o {
			n++
		}
	}
	return n
}

// AssociationResult is the outcome of linking one deal to its contact.
type AssociationResult struct {
	// ContactID is the HubSpot contact, when it was resolved this cycle.
	ContactID string

	// CustomerID is the Clover customer the order belongs to.
	CustomerID string

	// DealID is the HubSpot deal.
	DealID string

	// Err explains a skipped or failed outcome.
	Err error

	// OrderID is the Clover order.
	OrderID string

	// Outcome is created when the link was made.
	Outcome Outcome
}

// Report is the outcome of one cycle.
type Report struct {
	// Associations holds one result per replicated deal.
	Associations []AssociationResult

	// CycleID uniquely identifies the cycle. IDs sort by start time.
	CycleID string

	// DryRun indicates no writes were sent to HubSpot.
	DryRun bool

	// Err is set when the cycle could not run.
	Err error

	// FinishedAt is when the cycle ended.
	FinishedAt time.Time

	// Phase is the terminal phase, done or failed.
	Phase Phase

	// StartedAt is when the cycle began.
	StartedAt time.Time

	// Types holds one report per entity type, in entity.All order.
	Types []*TypeReport
}

// Type returns the report for t, or nil when the cycle did not reach it.
func (r *Report) Type(t entity.Type) *TypeReport {
	for _, tr := range r.Types {
		if tr.EntityType == t {
			return tr
		}
	}
	return nil
}

// Count returns how many records across all types had outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, tr := range r.Types {
		n += tr.Count(o)
	}
	return n
}

// Source reads pages of Clover records.
type Source interface {
	// FetchPage fetches up to limit records of type t newer than cursor.
	FetchPage(ctx context.Context, t entity.Type, cursor string, limit int) ([]clover.Record, error)
}

// Destination writes HubSpot objects.
type Destination interface {
	// Associate links a deal to a contact.
	Associate(ctx context.Context, dealID string, contactID string) error

	// Create creates an object and returns its ID.
	Create(ctx context.Context, obj hubspot.ObjectType, props hubspot.Properties) (string, error)

	// Search returns objects whose key property equals the key value.
	Search(ctx context.Context, obj hubspot.ObjectType, key hubspot.NaturalKey) ([]hubspot.Object, error)

	// Update updates an object and returns its ID.
	Update(ctx context.Context, obj hubspot.ObjectType, id string, props hubspot.Properties) (string, error)
}

// WatermarkStore tracks how far each entity type has been replicated.
type WatermarkStore interface {
	// Advance moves the cursor for t forward to candidate, reporting whether it moved.
	Advance(t entity.Type, candidate string) bool

	// Cursor returns the cursor for t, or false if there is none.
	Cursor(t entity.Type) (string, bool)

	// MarkSynced records that t has been replicated at least once.
	MarkSynced(t entity.Type)

	// Synced reports whether t has been replicated at least once.
	Synced(t entity.Type) bool
}

// ReportSink receives every finished cycle report.
type ReportSink interface {
	// SaveReport stores a report.
	SaveReport(ctx context.Context, report *Report) error
}
