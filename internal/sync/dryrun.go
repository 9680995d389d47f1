package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/peteski22/cloverbridge/internal/hubspot"
)

// dryRunDestination wraps a Destination and logs write operations instead of executing them.
type dryRunDestination struct {
	dest    Destination
	logger  *slog.Logger
	counter uint64
}

// newDryRunDestination creates a new dryRunDestination that wraps the given Destination.
func newDryRunDestination(dest Destination, logger *slog.Logger) *dryRunDestination {
	return &dryRunDestination{
		dest:   dest,
		logger: logger,
	}
}

// Associate logs what would be linked and returns nil.
func (d *dryRunDestination) Associate(ctx context.Context, dealID string, contactID string) error {
	d.logger.InfoContext(ctx, "[DRY-RUN] would associate deal with contact",
		"deal_id", dealID,
		"contact_id", contactID)

	return nil
}

// Create logs what would be created and returns a fake ID.
func (d *dryRunDestination) Create(ctx context.Context, obj hubspot.ObjectType, props hubspot.Properties) (string, error) {
	fakeID := d.nextFakeID(string(obj))

	d.logger.InfoContext(ctx, "[DRY-RUN] would create object",
		"fake_id", fakeID,
		"object_type", obj,
		"properties", props)

	return fakeID, nil
}

// Search delegates to the real destination.
func (d *dryRunDestination) Search(ctx context.Context, obj hubspot.ObjectType, key hubspot.NaturalKey) ([]hubspot.Object, error) {
	return d.dest.Search(ctx, obj, key)
}

// Update logs what would be updated and returns the existing ID.
func (d *dryRunDestination) Update(ctx context.Context, obj hubspot.ObjectType, id string, props hubspot.Properties) (string, error) {
	d.logger.InfoContext(ctx, "[DRY-RUN] would update object",
		"destination_id", id,
		"object_type", obj,
		"properties", props)

	return id, nil
}

// nextFakeID generates a unique fake ID for dry-run operations.
func (d *dryRunDestination) nextFakeID(prefix string) string {
	n := atomic.AddUint64(&d.counter, 1)
	return fmt.Sprintf("dry-run-%s-%d", prefix, n)
}
