// cmd/tools/sheet-probe/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"affiliate-registration/internal/common/config"
	"affiliate-registration/internal/common/logger"
	rs "affiliate-registration/internal/workers/registration/relay-sheet"
)

// sheet-probe posts the diagnostic entry to the configured spreadsheet
// webhook and prints the report. It exits 1 when the webhook did not accept
// the entry.
func main() {
	configPath := flag.String("config", "", "Path to config file (defaults to configs/config.yaml)")
	webhookURL := flag.String("url", "", "Webhook URL overriding the configured one")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *webhookURL != "" {
		cfg.Sheets.WebhookURL = *webhookURL
	}

	zapLog := logger.New("warn", "console", "stderr")
	defer zapLog.Sync()

	relay := rs.NewHandler(&rs.Config{
		WebhookURL: cfg.Sheets.WebhookURL,
		Timeout:    config.GetDuration(cfg.Sheets.Timeout),
		UserAgent:  cfg.Sheets.UserAgent,
	}, logger.NewZapAdapter(zapLog))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report, probeErr := relay.Probe(ctx)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if probeErr != nil {
		fmt.Fprintf(os.Stderr, "Probe failed: %v\n", probeErr)
		os.Exit(1)
	}
	if !report.Success {
		os.Exit(1)
	}
}
