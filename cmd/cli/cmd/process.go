package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dexprofile/internal/service"
	"github.com/dexprofile/pkg/telemetry"
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Finish uploads for pending catalog entries",
	Long: `Claim pending catalog entries and finish their blob upload from the
local data directory.

Entries are claimed with a row lock, so several workers can run the command
concurrently without double-processing.`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := cmd.Context()

	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		log.Warn("Telemetry disabled: %v", err)
	} else {
		defer shutdown(context.Background())
	}

	svc := service.New(GetConfig(), log)
	if err := svc.Initialize(ctx); err != nil {
		return err
	}
	defer svc.Close()

	processed, err := svc.ProcessPending(ctx)
	if err != nil {
		return err
	}

	log.Info("Processed %d pending profiles", processed)
	return nil
}
