package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/peteski22/cloverbridge/internal/config"
)

const configTemplate = `# CloverBridge Configuration
# Access tokens default to the CLOVER_ACCESS_TOKEN and HUBSPOT_ACCESS_TOKEN
# environment variables.

clover:
  # From the Clover Dashboard -> Account & Setup -> Merchants.
  merchant_id: ""
  # Exactly one of the following access token sources.
  access_token: ${CLOVER_ACCESS_TOKEN:""}
  access_token_file: ""
  access_token_parameter: ""
  access_token_secret_arn: ""
  # Fetch each order's customer to name deals and link contacts.
  enrich_orders: true

hubspot:
  # Private app access token, or one of the other sources.
  access_token: ${HUBSPOT_ACCESS_TOKEN:""}
  access_token_file: ""
  access_token_parameter: ""
  access_token_secret_arn: ""

deal:
  # HubSpot pipeline and stage IDs for deals created from orders.
  pipeline: "default"
  stage: "appointmentscheduled"
  paid_stage: "closedwon"

dynamodb:
  # Optional: table for cycle report history.
  reports_table: ""

sync:
  cycle_interval: "1m"
  cycle_timeout: "50s"
  concurrency: 8
  page_limit: 100
  # Optional per-type page sizes: customers, payments, orders, inventory.
  page_limits: {}
  inventory_resync: false
  dry_run: false
`

// runInit creates a sample configuration file.
func runInit(stdout io.Writer, args []string) error {
	defaultPath, err := config.ConfigFilePath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}

	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stdout)
	path := fs.String("path", defaultPath, "Where to write the config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := writeConfigTemplate(*path); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(stdout, "Created config file:", *path)
	_, _ = fmt.Fprintln(stdout)
	_, _ = fmt.Fprintln(stdout, "Next steps:")
	_, _ = fmt.Fprintln(stdout, "  1. Edit the config file with your merchant ID and access tokens")
	_, _ = fmt.Fprintln(stdout, "  2. Run 'cloverbridge once --dry-run' to preview a cycle")
	_, _ = fmt.Fprintln(stdout, "  3. Run 'cloverbridge run' to sync every cycle interval")

	return nil
}

// writeConfigTemplate writes the template to path, refusing to overwrite.
func writeConfigTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
