package storage

import (
	"sync"

	"github.com/peteski22/cloverbridge/internal/entity"
)

// Watermarks tracks, per entity type, the high-water mark of what has been
// replicated. It lives in memory for the life of the process.
type Watermarks struct {
	cursors map[entity.Type]string
	mu      sync.RWMutex
	synced  map[entity.Type]bool
}

// WatermarkSnapshot is a point-in-time copy of all watermarks.
type WatermarkSnapshot struct {
	// Cursors maps entity types to their current cursor token.
	Cursors map[entity.Type]string `json:"cursors,omitempty" yaml:"cursors,omitempty"`

	// Synced lists entity types whose synced flag is set.
	Synced map[entity.Type]bool `json:"synced,omitempty" yaml:"synced,omitempty"`
}

// WatermarkOption seeds a Watermarks value.
type WatermarkOption func(*Watermarks)

// WithCursor sets a starting cursor for t.
func WithCursor(t entity.Type, value string) WatermarkOption {
	return func(w *Watermarks) {
		if value != "" {
			w.cursors[t] = value
		}
	}
}

// WithSynced sets the synced flag for t.
func WithSynced(t entity.Type) WatermarkOption {
	return func(w *Watermarks) {
		w.synced[t] = true
	}
}

// NewWatermarks creates an empty watermark store.
func NewWatermarks(opts ...WatermarkOption) *Watermarks {
	w := &Watermarks{
		cursors: map[entity.Type]string{},
		synced:  map[entity.Type]bool{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Cursor returns the cursor for t, or false if it has never advanced.
func (w *Watermarks) Cursor(t entity.Type) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	cursor, ok := w.cursors[t]
	return cursor, ok
}

// Advance moves the cursor for t to candidate when candidate is non-empty and
// strictly greater than the current cursor. It reports whether the cursor moved.
func (w *Watermarks) Advance(t entity.Type, candidate string) bool {
	if candidate == "" {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if current, ok := w.cursors[t]; ok && entity.CompareTokens(candidate, current) <= 0 {
		return false
	}
	w.cursors[t] = candidate
	return true
}

// MarkSynced sets the synced flag for t. The flag is never cleared.
func (w *Watermarks) MarkSynced(t entity.Type) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.synced[t] = true
}

// Synced reports whether the synced flag is set for t.
func (w *Watermarks) Synced(t entity.Type) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.synced[t]
}

// Snapshot returns a copy of all cursors and flags.
func (w *Watermarks) Snapshot() WatermarkSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := WatermarkSnapshot{
		Cursors: make(map[entity.Type]string, len(w.cursors)),
		Synced:  make(map[entity.Type]bool, len(w.synced)),
	}
	for t, c := range w.cursors {
		snap.Cursors[t] = c
	}
	for t, s := range w.synced {
		snap.Synced[t] = s
	}
	return snap
}
