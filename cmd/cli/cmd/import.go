package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dexprofile/internal/service"
	"github.com/dexprofile/pkg/telemetry"
)

var (
	// Import command flags
	importPackage     string
	importVersionCode int64
	importUser        string
	importJobUUID     string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <files...>",
	Short: "Import profile binaries into the catalog",
	Long: `Import profile binaries into the catalog.

Each file is decoded, its metadata is recorded in the database and the raw
bytes are archived in blob storage. Files are imported concurrently;
per-file failures are reported without aborting the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	binName := BinName()
	importCmd.Example = `  # Import a single profile
  ` + binName + ` import --package com.example.app --version-code 42 baseline.prof

  # Import a batch of session profiles for a merge job
  ` + binName + ` import --package com.example.app --job 3f1c9d2e session*.prof`

	importCmd.Flags().StringVar(&importPackage, "package", "", "Package name the profiles belong to (required)")
	importCmd.Flags().Int64Var(&importVersionCode, "version-code", 0, "App version code")
	importCmd.Flags().StringVar(&importUser, "user", "", "User name recorded on the catalog entries")
	importCmd.Flags().StringVar(&importJobUUID, "job", "", "Merge job UUID to attach the profiles to")
	importCmd.MarkFlagRequired("package")
}

func runImport(cmd *cobra.Command, args []string) error {
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

	opts := service.ImportOptions{
		PackageName: importPackage,
		VersionCode: importVersionCode,
		UserName:    importUser,
	}
	if importJobUUID != "" {
		opts.MergeJobUUID = &importJobUUID
	}

	results := svc.ImportFiles(ctx, args, opts)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			log.Error("Failed to import %s: %v", r.Path, r.Err)
			continue
		}
		log.Info("Imported %s as %s (%s, %d hot methods)",
			r.Path, r.Record.ProfileUUID, r.Record.Format, r.Record.HotMethods)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d profiles failed to import", failed, len(results))
	}
	return nil
}
