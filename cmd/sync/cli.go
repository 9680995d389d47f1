package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/peteski22/cloverbridge/internal/config"
	"github.com/peteski22/cloverbridge/internal/storage"
	"github.com/peteski22/cloverbridge/internal/sync"
)

const (
	defaultEnvFile      = ".env"
	defaultHistoryLimit = 10
)

const usage = `Usage: cloverbridge <command> [flags]

Commands:
  init      Create a sample config file
  run       Sync every cycle interval until interrupted (default)
  once      Run a single sync cycle and print its report
  history   Show recent cycle reports from DynamoDB

Run 'cloverbridge <command> -h' for command flags.
`

// settingsFlags are the flags shared by every command that loads settings.
type settingsFlags struct {
	configPath string
	dryRun     bool
	envFile    string
}

// register adds the shared flags to fs.
func (f *settingsFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Path to a config file (default: the local config file, else environment)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Log HubSpot writes instead of sending them")
	fs.StringVar(&f.envFile, "env-file", defaultEnvFile, "Environment file to load before reading configuration")
}

// load reads settings from the config file or the environment.
func (f *settingsFlags) load() (*config.Settings, error) {
	if f.envFile != "" {
		if err := godotenv.Load(f.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	var (
		settings *config.Settings
		err      error
	)
	switch {
	case f.configPath != "":
		settings, err = config.LoadFile(f.configPath)
	case config.LocalConfigExists():
		settings, err = config.LoadLocal()
	default:
		settings, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if f.dryRun {
		settings.Sync.DryRun = true
	}
	return settings, nil
}

// run dispatches a command line to its command.
func run(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger) error {
	command := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	switch command {
	case "init":
		return runInit(stdout, args)
	case "run":
		return runSchedule(ctx, args, logger)
	case "once":
		return runOnce(ctx, args, stdout, logger)
	case "history":
		return runHistory(ctx, args, stdout, logger)
	case "help":
		_, _ = fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", command, usage)
	}
}

// runSchedule runs a cycle immediately and then on every tick until interrupted.
// Cycles never overlap: a tick that arrives mid-cycle is dropped by the ticker.
func runSchedule(ctx context.Context, args []string, logger *slog.Logger) error {
	var flags settingsFlags
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := flags.load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, settings, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting scheduled sync",
		"merchant_id", settings.Clover.MerchantID,
		"interval", settings.Sync.CycleInterval,
		"dry_run", settings.Sync.DryRun)

	ticker := time.NewTicker(settings.Sync.CycleInterval)
	defer ticker.Stop()

	for {
		if _, err := a.service.RunCycle(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorContext(ctx, "sync cycle did not run", "error", err)
		}

		select {
		case <-ctx.Done():
			logger.InfoContext(context.WithoutCancel(ctx), "stopping scheduled sync")
			return nil
		case <-ticker.C:
		}
	}
}

// onceOutput is what 'once' prints.
type onceOutput struct {
	Report     sync.Summary              `yaml:"report"`
	Watermarks storage.WatermarkSnapshot `yaml:"watermarks"`
}

// runOnce runs a single cycle and prints its report as YAML.
func runOnce(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger) error {
	var flags settingsFlags
	fs := flag.NewFlagSet("once", flag.ContinueOnError)
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := flags.load()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, settings, logger)
	if err != nil {
		return err
	}

	report, err := a.service.RunCycle(ctx)
	if report != nil {
		out := onceOutput{Report: report.Summary(), Watermarks: a.watermarks.Snapshot()}
		if encodeErr := writeYAML(stdout, out); encodeErr != nil {
			return encodeErr
		}
	}
	return err
}

// historyEntry is one row printed by 'history'.
type historyEntry struct {
	CycleID    string    `yaml:"cycle_id"`
	Failed     int       `yaml:"failed"`
	FinishedAt time.Time `yaml:"finished_at"`
	Phase      string    `yaml:"phase"`
	Written    int       `yaml:"written"`
}

// runHistory prints stored cycle reports: the latest few, or one in full.
func runHistory(ctx context.Context, args []string, stdout io.Writer, logger *slog.Logger) error {
	var flags settingsFlags
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	flags.register(fs)
	cycleID := fs.String("cycle", "", "Show the full report of one cycle")
	limit := fs.Int("limit", defaultHistoryLimit, "How many recent cycles to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := flags.load()
	if err != nil {
		return err
	}
	if settings.DynamoDB.ReportsTable == "" {
		return errors.New("history requires a reports table (dynamodb.reports_table or DYNAMODB_REPORTS_TABLE)")
	}

	a, err := newApp(ctx, settings, logger)
	if err != nil {
		return err
	}
	merchantID := settings.Clover.MerchantID

	if *cycleID != "" {
		entry, found, err := a.reports.Report(ctx, merchantID, *cycleID)
		if err != nil {
			return fmt.Errorf("reading report: %w", err)
		}
		if !found {
			return fmt.Errorf("no report for cycle %s", *cycleID)
		}
		summary, err := decodeSummary(entry)
		if err != nil {
			return err
		}
		return writeYAML(stdout, summary)
	}

	entries, err := a.reports.Latest(ctx, merchantID, *limit)
	if err != nil {
		return fmt.Errorf("listing reports: %w", err)
	}
	return writeYAML(stdout, historyEntries(entries))
}

// historyEntries converts stored entries into printable rows.
func historyEntries(entries []storage.ReportEntry) []historyEntry {
	rows := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, historyEntry{
			CycleID:    e.CycleID,
			Failed:     e.Failed,
			FinishedAt: e.FinishedAt,
			Phase:      e.Phase,
			Written:    e.Written,
		})
	}
	return rows
}

// decodeSummary parses the report body of a stored entry.
func decodeSummary(entry storage.ReportEntry) (sync.Summary, error) {
	var summary sync.Summary
	if err := json.Unmarshal([]byte(entry.Body), &summary); err != nil {
		return sync.Summary{}, fmt.Errorf("decoding report %s: %w", entry.CycleID, err)
	}
	return summary, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return enc.Close()
}
