package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/peteski22/cloverbridge/internal/clover"
	"github.com/peteski22/cloverbridge/internal/config"
	"github.com/peteski22/cloverbridge/internal/entity"
	"github.com/peteski22/cloverbridge/internal/hubspot"
)

const (
	defaultConcurrency  = 8
	defaultCycleTimeout = 50 * time.Second
	defaultPageLimit    = 100

	// reportSaveTimeout bounds handing a report to the sink once the cycle has ended.
	reportSaveTimeout = 10 * time.Second
)

// Config holds the required configuration for creating a Service.
type Config struct {
	// DealDefaults contains the pipeline and stages for deals.
	DealDefaults config.DealDefaults

	// Destination is the HubSpot client.
	Destination Destination

	// Logger is the structured logger for the service.
	Logger *slog.Logger

	// ReportSink optionally receives every finished report.
	ReportSink ReportSink

	// Source is the Clover client.
	Source Source

	// Sync contains page sizes, concurrency, timeout and mode flags.
	Sync config.Sync

	// Watermarks tracks replication progress per entity type.
	Watermarks WatermarkStore
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.Destination == nil {
		errs = append(errs, errors.New("destination is required"))
	}
	if c.Source == nil {
		errs = append(errs, errors.New("source is required"))
	}
	if c.Watermarks == nil {
		errs = append(errs, errors.New("watermark store is required"))
	}
	if c.DealDefaults.Pipeline == "" {
		errs = append(errs, errors.New("deal defaults pipeline is required"))
	}
	if c.DealDefaults.Stage == "" {
		errs = append(errs, errors.New("deal defaults stage is required"))
	}
	return errors.Join(errs...)
}

// Service runs sync cycles from Clover to HubSpot.
type Service struct {
	concurrency     int
	cycleTimeout    time.Duration
	dryRun          bool
	inventoryResync bool
	linker          *Linker
	logger          *slog.Logger
	mapper          Mapper
	phase           atomic.Value
	reportSink      ReportSink
	resolver        *Resolver
	running         atomic.Bool
	source          Source
	syncSettings    config.Sync
	watermarks      WatermarkStore
}

// typeRun carries one entity type through a cycle.
type typeRun struct {
	mapped  []hubspot.Record
	records []clover.Record
	report  *TypeReport
}

// active reports whether the type fetched a page to process.
func (r *typeRun) active() bool {
	return r.report.Status == StatusSynced
}

// New creates a new sync service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dest := cfg.Destination
	if cfg.Sync.DryRun {
		dest = newDryRunDestination(cfg.Destination, logger)
	}

	settings := cfg.Sync
	if settings.Concurrency <= 0 {
		settings.Concurrency = defaultConcurrency
	}
	if settings.CycleTimeout <= 0 {
		settings.CycleTimeout = defaultCycleTimeout
	}
	if settings.PageLimit <= 0 {
		settings.PageLimit = defaultPageLimit
	}

	s := &Service{
		concurrency:     settings.Concurrency,
		cycleTimeout:    settings.CycleTimeout,
		dryRun:          settings.DryRun,
		inventoryResync: settings.InventoryResync,
		linker:          NewLinker(dest),
		logger:          logger,
		mapper:          NewMapper(cfg.DealDefaults),
		reportSink:      cfg.ReportSink,
		resolver:        NewResolver(dest, logger),
		source:          cfg.Source,
		syncSettings:    settings,
		watermarks:      cfg.Watermarks,
	}
	s.phase.Store(PhaseIdle)

	return s, nil
}

// Phase returns the phase of the current or most recent cycle.
func (s *Service) Phase() Phase {
	return s.phase.Load().(Phase)
}

// RunCycle runs one sync cycle. Per-record and per-type failures are part of
// the returned report. An error is returned only when the cycle could not run:
// another cycle is in progress, or ctx was already done.
func (s *Service) RunCycle(ctx context.Context) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}
	defer s.running.Store(false)

	report := &Report{
		CycleID:   ulid.Make().String(),
		DryRun:    s.dryRun,
		StartedAt: time.Now().UTC(),
	}
	logger := s.logger.With("cycle_id", report.CycleID)

	if err := ctx.Err(); err != nil {
		report.Err = fmt.Errorf("cycle not started: %w", err)
		s.finish(ctx, logger, report, PhaseFailed)
		return report, report.Err
	}

	cycleCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	logger.InfoContext(ctx, "starting sync cycle",
		"dry_run", s.dryRun,
		"timeout", s.cycleTimeout)

	types := entity.All()
	runs := make([]*typeRun, len(types))

	s.setPhase(ctx, logger, PhaseFetching)
	s.fetchAll(cycleCtx, logger, types, runs)

	s.setPhase(ctx, logger, PhaseMapping)
	for _, run := range runs {
		s.mapRecords(run)
	}

	s.setPhase(ctx, logger, PhaseUpserting)
	s.upsertAll(cycleCtx, logger, runs)

	for _, run := range runs {
		report.Types = append(report.Types, run.report)
	}

	s.setPhase(ctx, logger, PhaseAssociating)
	report.Associations = s.associate(cycleCtx, logger, runs)

	s.finish(ctx, logger, report, PhaseDone)
	return report, nil
}

// fetchAll fetches one page of every type concurrently.
func (s *Service) fetchAll(ctx context.Context, logger *slog.Logger, types []entity.Type, runs []*typeRun) {
	var g errgroup.Group
	for i, t := range types {
		g.Go(func() error {
			runs[i] = s.fetch(ctx, logger, t)
			return nil
		})
	}
	_ = g.Wait()
}

// fetch reads one page of t starting after its watermark.
func (s *Service) fetch(ctx context.Context, logger *slog.Logger, t entity.Type) *typeRun {
	run := &typeRun{report: &TypeReport{EntityType: t}}

	if t == entity.Inventory && s.watermarks.Synced(t) && !s.inventoryResync {
		run.report.Status = StatusAlreadySynced
		logger.DebugContext(ctx, "inventory already synced, skipping fetch")
		return run
	}

	cursor, _ := s.watermarks.Cursor(t)
	run.report.Cursor = cursor

	records, err := s.source.FetchPage(ctx, t, cursor, s.syncSettings.PageLimitFor(t))
	if err != nil {
		run.report.Status = StatusFetchFailed
		run.report.Err = err
		logger.ErrorContext(ctx, "failed to fetch page",
			"entity_type", t,
			"cursor", cursor,
			"error", err)
		return run
	}

	run.records = records
	run.report.Fetched = len(records)
	run.report.Status = StatusSynced
	logger.InfoContext(ctx, "fetched page",
		"entity_type", t,
		"cursor", cursor,
		"count", len(records))

	return run
}

// mapRecords maps every fetched record. Mapping failures become failed results.
func (s *Service) mapRecords(run *typeRun) {
	if !run.active() {
		return
	}

	run.mapped = make([]hubspot.Record, len(run.records))
	run.report.Records = make([]RecordResult, len(run.records))
	for i, record := range run.records {
		run.report.Records[i].SourceID = record.ID()

		mapped, err := s.mapper.Map(run.report.EntityType, record)
		if err != nil {
			run.report.Records[i].Outcome = OutcomeFailed
			run.report.Records[i].Err = fmt.Errorf("mapping: %w", err)
			continue
		}
		run.mapped[i] = mapped
	}
}

// upsertAll upserts every type concurrently and advances each watermark once its records are done.
func (s *Service) upsertAll(ctx context.Context, logger *slog.Logger, runs []*typeRun) {
	var g errgroup.Group
	for _, run := range runs {
		if !run.active() {
			continue
		}
		g.Go(func() error {
			s.upsertType(ctx, logger, run)
			s.advance(ctx, logger, run)
			return nil
		})
	}
	_ = g.Wait()
}

// upsertType resolves a type's records. Records sharing a natural key are
// resolved one after another in page order; distinct keys run concurrently.
func (s *Service) upsertType(ctx context.Context, logger *slog.Logger, run *typeRun) {
	var order []string
	groups := map[string][]int{}

	for i, mapped := range run.mapped {
		if mapped == nil {
			continue
		}
		key, ok := mapped.NaturalKey()
		if !ok {
			run.report.Records[i].Outcome = OutcomeSkipped
			run.report.Records[i].Err = ErrNoNaturalKey
			logger.InfoContext(ctx, "skipping record without natural key",
				"entity_type", run.report.EntityType,
				"source_id", mapped.SourceID())
			continue
		}
		k := key.String()
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, k := range order {
		indexes := groups[k]
		g.Go(func() error {
			for _, i := range indexes {
				run.report.Records[i] = s.upsertRecord(ctx, logger, run.report.EntityType, run.mapped[i])
			}
			return nil
		})
	}
	_ = g.Wait()
}

// upsertRecord resolves one mapped record and logs the outcome.
func (s *Service) upsertRecord(ctx context.Context, logger *slog.Logger, t entity.Type, mapped hubspot.Record) RecordResult {
	result := RecordResult{SourceID: mapped.SourceID()}

	resolution, err := s.resolver.Resolve(ctx, mapped)
	result.Outcome = resolution.Outcome
	result.DestinationID = resolution.DestinationID
	result.Duplicates = resolution.Duplicates
	result.Err = err

	if result.Outcome == OutcomeFailed {
		logger.ErrorContext(ctx, "failed to upsert record",
			"entity_type", t,
			"source_id", result.SourceID,
			"error", err)
		return result
	}

	logger.InfoContext(ctx, "upserted record",
		"entity_type", t,
		"source_id", result.SourceID,
		"destination_id", result.DestinationID,
		"outcome", result.Outcome)
	return result
}

// advance moves the type's watermark past the fetched page. Record outcomes
// do not hold it back. Dry-run cycles leave watermarks untouched.
func (s *Service) advance(ctx context.Context, logger *slog.Logger, run *typeRun) {
	t := run.report.EntityType
	if s.dryRun || len(run.records) == 0 {
		return
	}

	if t == entity.Inventory {
		s.watermarks.MarkSynced(t)
		run.report.Advanced = true
		return
	}

	latest, ok := clover.LatestCursor(t, run.records)
	if !ok {
		return
	}
	if s.watermarks.Advance(t, latest) {
		run.report.Advanced = true
		logger.InfoContext(ctx, "advanced watermark",
			"entity_type", t,
			"from", run.report.Cursor,
			"to", latest)
	}
	run.report.Cursor, _ = s.watermarks.Cursor(t)
}

// associate links each written deal to the contact resolved for its customer in this cycle.
func (s *Service) associate(ctx context.Context, logger *slog.Logger, runs []*typeRun) []AssociationResult {
	var customers, orders *typeRun
	for _, run := range runs {
		switch run.report.EntityType {
		case entity.Customers:
			customers = run
		case entity.Orders:
			orders = run
		}
	}
	if orders == nil || !orders.active() {
		return nil
	}

	contacts := map[string]string{}
	if customers != nil {
		for _, rec := range customers.report.Records {
			if rec.Outcome.Written() {
				contacts[rec.SourceID] = rec.DestinationID
			}
		}
	}

	var results []AssociationResult
	for i, rec := range orders.report.Records {
		if !rec.Outcome.Written() {
			continue
		}
		deal, _ := orders.mapped[i].(hubspot.Deal)

		result := AssociationResult{
			CustomerID: deal.SourceCustomerID,
			DealID:     rec.DestinationID,
			OrderID:    rec.SourceID,
		}
		switch contactID, ok := contacts[deal.SourceCustomerID]; {
		case deal.SourceCustomerID == "":
			result.Outcome = OutcomeSkipped
			result.Err = errNoCustomer
		case !ok:
			result.Outcome = OutcomeSkipped
			result.Err = errCustomerNotResolved
		default:
			result.ContactID = contactID
		}
		results = append(results, result)
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range results {
		if results[i].Outcome == OutcomeSkipped {
			logger.DebugContext(ctx, "skipping association",
				"order_id", results[i].OrderID,
				"customer_id", results[i].CustomerID,
				"reason", results[i].Err)
			continue
		}
		g.Go(func() error {
			if err := s.linker.Link(ctx, results[i].DealID, results[i].ContactID); err != nil {
				results[i].Outcome = OutcomeFailed
				results[i].Err = err
				logger.ErrorContext(ctx, "failed to associate deal with contact",
					"order_id", results[i].OrderID,
					"deal_id", results[i].DealID,
					"contact_id", results[i].ContactID,
					"error", err)
				return nil
			}
			results[i].Outcome = OutcomeCreated
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// finish stamps the report, hands it to the sink and logs the summary.
func (s *Service) finish(ctx context.Context, logger *slog.Logger, report *Report, phase Phase) {
	report.Phase = phase
	report.FinishedAt = time.Now().UTC()
	s.setPhase(ctx, logger, phase)

	if s.reportSink != nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportSaveTimeout)
		defer cancel()
		if err := s.reportSink.SaveReport(saveCtx, report); err != nil {
			logger.ErrorContext(ctx, "failed to save cycle report", "error", err)
		}
	}

	s.logSyncComplete(ctx, logger, report)
}

// logSyncComplete logs the final cycle summary.
func (s *Service) logSyncComplete(ctx context.Context, logger *slog.Logger, report *Report) {
	summary := report.Summary()

	args := []any{
		"phase", report.Phase,
		"created", report.Count(OutcomeCreated),
		"updated", report.Count(OutcomeUpdated),
		"skipped", report.Count(OutcomeSkipped),
		"failed", report.Count(OutcomeFailed),
		"associations_linked", summary.Associations.Linked,
		"associations_skipped", summary.Associations.Skipped,
		"associations_failed", summary.Associations.Failed,
		"duration", report.FinishedAt.Sub(report.StartedAt),
		"dry_run", s.dryRun,
	}
	if report.Err != nil {
		args = append(args, "error", report.Err)
		logger.ErrorContext(ctx, "sync cycle failed", args...)
		return
	}
	logger.InfoContext(ctx, "sync cycle completed", args...)
}

func (s *Service) setPhase(ctx context.Context, logger *slog.Logger, phase Phase) {
	s.phase.Store(phase)
	logger.DebugContext(ctx, "sync phase", "phase", phase)
}
