package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/greenmarine/internal/crm"
)

var crmCmd = &cobra.Command{
	Use:   "crm",
	Short: "Pipedrive helpers",
}

var crmPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the Pipedrive credentials from the environment",
	Long: `Lists Pipedrive users with PIPEDRIVE_API_KEY to confirm the key and
PIPEDRIVE_COMPANY_DOMAIN (or PIPEDRIVE_BASE_URL) are valid.`,
	RunE: runCRMPing,
}

func init() {
	crmCmd.AddCommand(crmPingCmd)
}

func runCRMPing(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	client, err := crm.New(crm.Config{
		APIKey:        os.Getenv("PIPEDRIVE_API_KEY"),
		CompanyDomain: os.Getenv("PIPEDRIVE_COMPANY_DOMAIN"),
		BaseURL:       os.Getenv("PIPEDRIVE_BASE_URL"),
	}, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	if err := client.TestConnection(ctx); err != nil {
		return fmt.Errorf("pipedrive connection failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Pipedrive connection OK")
	return nil
}
