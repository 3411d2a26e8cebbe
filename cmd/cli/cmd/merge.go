package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dexprofile/internal/codec"
	"github.com/dexprofile/internal/service"
	"github.com/dexprofile/pkg/profile"
	"github.com/dexprofile/pkg/telemetry"
)

var (
	// Merge command flags
	mergeOutput  string
	mergeTarget  string
	mergeJobUUID string
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge several profiles into one",
	Long: `Merge profile binaries from multiple sessions into a single profile.

In local mode the positional arguments are profile files to merge; the
result is written to the output file. With --job the sources are resolved
from a merge job in the catalog instead, and the merged profile is imported
as a new catalog entry.

Merging unions hot classes and ORs method flags. Dex files are matched by
name and checksum; sources that disagree on a checksum fail the merge.`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	binName := BinName()
	mergeCmd.Example = `  # Merge local session profiles
  ` + binName + ` merge -o merged.prof session1.prof session2.prof

  # Resolve a catalog merge job
  ` + binName + ` merge --job 3f1c9d2e-8a14-4a6b-9c2f-5d7e1b0a4c3d`

	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output file for local mode")
	mergeCmd.Flags().StringVar(&mergeTarget, "to", "v3", "Wire format version of the merged profile: v1, v2, v3")
	mergeCmd.Flags().StringVar(&mergeJobUUID, "job", "", "Merge job UUID to resolve from the catalog")
}

func runMerge(cmd *cobra.Command, args []string) error {
	if mergeJobUUID != "" {
		return runMergeJob(cmd.Context(), mergeJobUUID)
	}
	return runMergeLocal(args)
}

func runMergeLocal(paths []string) error {
	log := GetLogger()

	if len(paths) < 2 {
		return fmt.Errorf("local merge needs at least two profile files")
	}
	if mergeOutput == "" {
		return fmt.Errorf("local merge needs an output file (-o)")
	}

	target, err := codec.ParseVersion(mergeTarget)
	if err != nil {
		return err
	}

	sources := make([]*profile.Profile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read profile file: %w", err)
		}
		p, err := codec.Decode(data)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		sources = append(sources, p)
	}

	merged, err := profile.Merge(sources...)
	if err != nil {
		return err
	}

	data, err := codec.Encode(merged, target)
	if err != nil {
		return err
	}
	if err := os.WriteFile(mergeOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info("Merged %d profiles into %s (%s, %d bytes)", len(sources), mergeOutput, target, len(data))
	log.Info("  %d dex files, %d classes, %d methods (%d hot)",
		merged.Len(), merged.ClassCount(), merged.MethodCount(), merged.HotMethodCount())

	return nil
}

func runMergeJob(ctx context.Context, jobUUID string) error {
	log := GetLogger()

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

	record, err := svc.Merge(ctx, jobUUID)
	if err != nil {
		return err
	}

	log.Info("Merge job %s resolved: profile %s (%d hot methods, %d bytes)",
		jobUUID, record.ProfileUUID, record.HotMethods, record.SizeBytes)

	return nil
}
