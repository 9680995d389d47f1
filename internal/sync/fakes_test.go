package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	gosync "sync"

	"github.com/peteski22/cloverbridge/internal/clover"
	"github.com/peteski22/cloverbridge/internal/entity"
	"github.com/peteski22/cloverbridge/internal/hubspot"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource serves in-memory pages, honoring cursors and limits like Clover does.
type fakeSource struct {
	mu      gosync.Mutex
	calls   map[entity.Type][]string
	errs    map[entity.Type]error
	records map[entity.Type][]clover.Record

	// block, when set, holds every FetchPage until it is closed or ctx ends.
	block chan struct{}

	// started receives once per FetchPage call, when set.
	started chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		calls:   map[entity.Type][]string{},
		errs:    map[entity.Type]error{},
		records: map[entity.Type][]clover.Record{},
	}
}

func (f *fakeSource) add(t entity.Type, raw ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range raw {
		f.records[t] = append(f.records[t], clover.MustRecord(r))
	}
}

func (f *fakeSource) fail(t entity.Type, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[t] = err
}

func (f *fakeSource) callCount(t entity.Type) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls[t])
}

func (f *fakeSource) cursors(t entity.Type) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls[t]...)
}

// FetchPage implements Source.
func (f *fakeSource) FetchPage(ctx context.Context, t entity.Type, cursor string, limit int) ([]clover.Record, error) {
	f.mu.Lock()
	f.calls[t] = append(f.calls[t], cursor)
	err := f.errs[t]
	all := f.records[t]
	block := f.block
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	var page []clover.Record
	for _, r := range all {
		if cursor != "" {
			token, ok := r.CursorToken(t)
			if ok && entity.CompareTokens(token, cursor) <= 0 {
				continue
			}
		}
		page = append(page, r)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

// fakeObject is an object held by fakeDestination.
type fakeObject struct {
	id    string
	obj   hubspot.ObjectType
	props hubspot.Properties
}

// fakeDestination is an in-memory HubSpot.
type fakeDestination struct {
	mu           gosync.Mutex
	associations [][2]string
	nextID       int
	objects      []*fakeObject
	ops          map[string]int

	// failOn returns an error for an operation when set. key is the natural
	// key value for searches and the object ID for updates.
	failOn func(op string, obj hubspot.ObjectType, key string) error
}

func newFakeDestination() *fakeDestination {
	return &fakeDestination{ops: map[string]int{}}
}

func (f *fakeDestination) seed(obj hubspot.ObjectType, props hubspot.Properties) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(obj, props)
}

func (f *fakeDestination) insert(obj hubspot.ObjectType, props hubspot.Properties) string {
	f.nextID++
	id := fmt.Sprintf("%s-%d", obj, f.nextID)
	copied := hubspot.Properties{}
	for k, v := range props {
		copied[k] = v
	}
	f.objects = append(f.objects, &fakeObject{id: id, obj: obj, props: copied})
	return id
}

func (f *fakeDestination) count(obj hubspot.ObjectType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.objects {
		if o.obj == obj {
			n++
		}
	}
	return n
}

func (f *fakeDestination) opCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ops[op]
}

func (f *fakeDestination) linked() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.associations...)
}

func (f *fakeDestination) failure(op string, obj hubspot.ObjectType, key string) error {
	if f.failOn == nil {
		return nil
	}
	return f.failOn(op, obj, key)
}

// Associate implements Destination.
func (f *fakeDestination) Associate(_ context.Context, dealID string, contactID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops["associate"]++
	if err := f.failure("associate", hubspot.ObjectDeals, dealID); err != nil {
		return err
	}
	f.associations = append(f.associations, [2]string{dealID, contactID})
	return nil
}

// Create implements Destination.
func (f *fakeDestination) Create(_ context.Context, obj hubspot.ObjectType, props hubspot.Properties) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops["create"]++
	if err := f.failure("create", obj, ""); err != nil {
		return "", err
	}
	return f.insert(obj, props), nil
}

// Search implements Destination.
func (f *fakeDestination) Search(_ context.Context, obj hubspot.ObjectType, key hubspot.NaturalKey) ([]hubspot.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops["search"]++
	if err := f.failure("search", obj, key.Value); err != nil {
		return nil, err
	}
	var out []hubspot.Object
	for _, o := range f.objects {
		if o.obj == obj && o.props[key.Property] == key.Value {
			out = append(out, hubspot.Object{ID: o.id, Properties: o.props})
		}
	}
	return out, nil
}

// Update implements Destination.
func (f *fakeDestination) Update(_ context.Context, obj hubspot.ObjectType, id string, props hubspot.Properties) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops["update"]++
	if err := f.failure("update", obj, id); err != nil {
		return "", err
	}
	for _, o := range f.objects {
		if o.obj == obj && o.id == id {
			for k, v := range props {
				o.props[k] = v
			}
			return id, nil
		}
	}
	return "", fmt.Errorf("object %s not found", id)
}

// fakeSink records every report it receives.
type fakeSink struct {
	mu      gosync.Mutex
	err     error
	reports []*Report
}

// SaveReport implements ReportSink.
func (f *fakeSink) SaveReport(_ context.Context, report *Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, report)
	return f.err
}

func (f *fakeSink) saved() []*Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Report(nil), f.reports...)
}
