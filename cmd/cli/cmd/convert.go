package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dexprofile/internal/codec"
	"github.com/dexprofile/internal/transcode"
)

var (
	// Convert command flags
	convertInput  string
	convertOutput string
	convertTarget string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a profile binary between wire format versions",
	Long: `Convert a profile binary to another wire format version.

The source version is detected from the file magic. Converting down to v1
drops method flags the v1 format cannot express: only hot methods survive.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	binName := BinName()
	convertCmd.Example = `  # Upgrade a legacy profile to the compressed v3 format
  ` + binName + ` convert -i baseline.prof -o baseline-v3.prof --to v3

  # Downgrade to v1 for an old runtime
  ` + binName + ` convert -i baseline-v3.prof -o baseline-v1.prof --to v1`

	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "Input profile file (required)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output profile file (required)")
	convertCmd.Flags().StringVar(&convertTarget, "to", "v3", "Target wire format version: v1, v2, v3")
	convertCmd.MarkFlagRequired("input")
	convertCmd.MarkFlagRequired("output")
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	target, err := codec.ParseVersion(convertTarget)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(convertInput)
	if err != nil {
		return fmt.Errorf("failed to read profile file: %w", err)
	}

	res, err := transcode.Convert(data, target)
	if err != nil {
		return err
	}

	if err := os.WriteFile(convertOutput, res.Data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info("Converted %s (%s, %d bytes) to %s (%s, %d bytes)",
		convertInput, res.From, len(data), convertOutput, res.To, len(res.Data))
	log.Info("  %d dex files, %d classes, %d methods (%d hot)",
		res.Profile.Len(), res.Profile.ClassCount(), res.Profile.MethodCount(), res.Profile.HotMethodCount())

	return nil
}
