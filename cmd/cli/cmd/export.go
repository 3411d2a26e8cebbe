package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dexprofile/internal/codec"
	"github.com/dexprofile/internal/service"
	"github.com/dexprofile/pkg/telemetry"
)

var (
	// Export command flags
	exportOutput string
	exportTarget string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <profile-uuid>",
	Short: "Export a catalogued profile",
	Long: `Fetch a stored profile blob from the catalog and write it to a local
file, transcoded to the requested wire format version.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	binName := BinName()
	exportCmd.Example = `  # Export a profile in the v3 wire format
  ` + binName + ` export 3f1c9d2e-8a14-4a6b-9c2f-5d7e1b0a4c3d -o baseline.prof --to v3`

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output profile file (required)")
	exportCmd.Flags().StringVar(&exportTarget, "to", "v3", "Target wire format version: v1, v2, v3")
	exportCmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	ctx := cmd.Context()

	target, err := codec.ParseVersion(exportTarget)
	if err != nil {
		return err
	}

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

	data, err := svc.Export(ctx, args[0], target)
	if err != nil {
		return err
	}

	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info("Exported profile %s to %s (%s, %d bytes)", args[0], exportOutput, target, len(data))
	return nil
}
