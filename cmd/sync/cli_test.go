package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peteski22/cloverbridge/internal/storage"
)

const testConfig = `
clover:
  merchant_id: "M1"
  access_token: "clover-token"
hubspot:
  access_token: "hubspot-token"
sync:
  cycle_interval: "5m"
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_commands(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := map[string]struct {
		args    []string
		errMsg  string
		wantOut string
	}{
		"help": {
			args:    []string{"help"},
			wantOut: "Usage: cloverbridge",
		},
		"unknown command": {
			args:   []string{"sync-everything"},
			errMsg: `unknown command "sync-everything"`,
		},
		"history without reports table": {
			args:   []string{"history", "-env-file", "", "-config", writeTestConfig(t, testConfig)},
			errMsg: "history requires a reports table",
		},
		"missing config file": {
			args:   []string{"once", "-env-file", "", "-config", filepath.Join(t.TempDir(), "missing.yaml")},
			errMsg: "config file not found",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			err := run(context.Background(), tc.args, &out, logger)
			if tc.errMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.Contains(t, out.String(), tc.wantOut)
		})
	}
}

func TestSettingsFlags_load(t *testing.T) {
	t.Parallel()

	flags := settingsFlags{configPath: writeTestConfig(t, testConfig), dryRun: true}

	settings, err := flags.load()
	require.NoError(t, err)
	require.Equal(t, "M1", settings.Clover.MerchantID)
	require.True(t, settings.Sync.DryRun)
	require.Equal(t, "5m0s", settings.Sync.CycleInterval.String())
}

func TestNewApp(t *testing.T) {
	t.Parallel()

	flags := settingsFlags{configPath: writeTestConfig(t, testConfig)}
	settings, err := flags.load()
	require.NoError(t, err)

	a, err := newApp(context.Background(), settings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NotNil(t, a.service)
	require.Nil(t, a.reports)
	require.Empty(t, a.watermarks.Snapshot().Cursors)
}

func TestHistoryEntries(t *testing.T) {
	t.Parallel()

	entry, err := reportEntry("M1", testReport())
	require.NoError(t, err)

	rows := historyEntries([]storage.ReportEntry{entry})
	require.Len(t, rows, 1)
	require.Equal(t, historyEntry{
		CycleID:    entry.CycleID,
		Failed:     1,
		FinishedAt: entry.FinishedAt,
		Phase:      "done",
		Written:    2,
	}, rows[0])

	var out bytes.Buffer
	require.NoError(t, writeYAML(&out, rows))
	require.Contains(t, out.String(), "cycle_id: "+entry.CycleID)
}
