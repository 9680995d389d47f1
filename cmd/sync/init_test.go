package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/peteski22/cloverbridge/internal/config"
)

func TestConfigTemplate(t *testing.T) {
	t.Parallel()

	var doc map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(configTemplate), &doc))

	for _, section := range []string{"clover", "hubspot", "deal", "dynamodb", "sync"} {
		require.Contains(t, doc, section)
	}
	require.Contains(t, doc["clover"], "merchant_id")
	require.Contains(t, doc["clover"], "access_token_secret_arn")
	require.Contains(t, doc["hubspot"], "access_token_parameter")
	require.Equal(t, "closedwon", doc["deal"]["paid_stage"])
	require.Equal(t, "50s", doc["sync"]["cycle_timeout"])
}

func TestConfigTemplate_loadsAfterEditing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeConfigTemplate(path))

	// Fresh template: only the merchant and tokens are missing.
	_, err := config.LoadFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "CLOVER_MERCHANT_ID")

	edited := bytes.Replace([]byte(configTemplate), []byte(`merchant_id: ""`), []byte(`merchant_id: "M1"`), 1)
	edited = bytes.Replace(edited, []byte(`${CLOVER_ACCESS_TOKEN:""}`), []byte(`clover-token`), 1)
	edited = bytes.Replace(edited, []byte(`${HUBSPOT_ACCESS_TOKEN:""}`), []byte(`hubspot-token`), 1)
	require.NoError(t, os.WriteFile(path, edited, 0o600))

	settings, err := config.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "M1", settings.Clover.MerchantID)
	require.Equal(t, "appointmentscheduled", settings.DealDefaults.Stage)
	require.Equal(t, 8, settings.Sync.Concurrency)
}

func TestWriteConfigTemplate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "cloverbridge")
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, writeConfigTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, configTemplate, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	err = writeConfigTemplate(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "config file already exists")
}

func TestRunInit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	var out bytes.Buffer

	require.NoError(t, runInit(&out, []string{"-path", path}))
	require.Contains(t, out.String(), "Created config file: "+path)
	require.FileExists(t, path)
}
