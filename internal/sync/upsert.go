package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peteski22/cloverbridge/internal/hubspot"
)

// Resolution is the result of upserting one record.
type Resolution struct {
	// DestinationID is the HubSpot object ID.
	DestinationID string

	// Duplicates counts further matches beyond the one that was updated.
	Duplicates int

	// Outcome is created, updated or skipped.
	Outcome Outcome
}

// Resolver upserts records by searching on their natural key, then updating
// the first match or creating a new object.
type Resolver struct {
	dest   Destination
	logger *slog.Logger
}

// NewResolver creates a Resolver writing to dest.
func NewResolver(dest Destination, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{dest: dest, logger: logger}
}

// Resolve upserts record. A record without a natural key is skipped with
// ErrNoNaturalKey and HubSpot is not called. Search and write are separate
// requests, so two concurrent resolves of the same key can both create.
func (r *Resolver) Resolve(ctx context.Context, record hubspot.Record) (Resolution, error) {
	key, ok := record.NaturalKey()
	if !ok {
		return Resolution{Outcome: OutcomeSkipped}, ErrNoNaturalKey
	}

	obj := record.Object()

	matches, err := r.dest.Search(ctx, obj, key)
	if err != nil {
		return Resolution{Outcome: OutcomeFailed}, fmt.Errorf("searching by %s: %w", key, err)
	}

	if len(matches) == 0 {
		id, err := r.dest.Create(ctx, obj, record.Properties())
		if err != nil {
			return Resolution{Outcome: OutcomeFailed}, fmt.Errorf("creating: %w", err)
		}
		return Resolution{DestinationID: id, Outcome: OutcomeCreated}, nil
	}

	if len(matches) > 1 {
		r.logger.WarnContext(ctx, "multiple HubSpot objects match natural key",
			"object_type", obj,
			"natural_key", key.String(),
			"matches", len(matches),
			"using_id", matches[0].ID)
	}

	id, err := r.dest.Update(ctx, obj, matches[0].ID, record.Properties())
	if err != nil {
		return Resolution{Outcome: OutcomeFailed}, fmt.Errorf("updating %s: %w", matches[0].ID, err)
	}

	return Resolution{DestinationID: id, Duplicates: len(matches) - 1, Outcome: OutcomeUpdated}, nil
}
