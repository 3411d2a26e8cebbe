package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dexprofile/internal/codec"
	"github.com/dexprofile/pkg/model"
	"github.com/dexprofile/pkg/writer"
)

var (
	// Dump command flags
	dumpJSON    bool
	dumpOutFile string
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Inspect a profile binary",
	Long: `Decode a profile binary and print a per-dex summary.

The wire format version is detected from the file magic. The summary lists
every dex file with its checksum, class count and method counts broken down
by flag (hot, startup, post-startup).`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	binName := BinName()
	dumpCmd.Example = `  # Print a human-readable summary
  ` + binName + ` dump baseline.prof

  # Emit the summary as JSON
  ` + binName + ` dump baseline.prof --json

  # Write the JSON summary to a file
  ` + binName + ` dump baseline.prof --json -o summary.json`

	dumpCmd.Flags().BoolVar(&dumpJSON, "json", false, "Emit the summary as JSON")
	dumpCmd.Flags().StringVarP(&dumpOutFile, "output", "o", "", "Write JSON summary to a file instead of stdout (gzipped if it ends in .gz)")
}

func runDump(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read profile file: %w", err)
	}

	version, err := codec.DetectVersion(data)
	if err != nil {
		return err
	}
	p, err := codec.Decode(data)
	if err != nil {
		return err
	}

	summary := model.Summarize(p, version.String())

	if dumpJSON || dumpOutFile != "" {
		if strings.HasSuffix(dumpOutFile, ".gz") {
			return writer.NewGzipWriter[*model.ProfileSummary]().WriteToFile(summary, dumpOutFile)
		}
		w := writer.NewPrettyJSONWriter[*model.ProfileSummary]()
		if dumpOutFile != "" {
			return w.WriteToFile(summary, dumpOutFile)
		}
		return w.Write(summary, os.Stdout)
	}

	printSummary(summary, int64(len(data)))
	return nil
}

func printSummary(s *model.ProfileSummary, sizeBytes int64) {
	fmt.Printf("Format:      %s\n", s.Format)
	fmt.Printf("Size:        %d bytes\n", sizeBytes)
	fmt.Printf("Dex files:   %d\n", len(s.DexFiles))
	fmt.Printf("Classes:     %d\n", s.TotalClass)
	fmt.Printf("Methods:     %d (%d hot)\n", s.TotalMethod, s.TotalHot)
	fmt.Println()

	for _, d := range s.DexFiles {
		fmt.Printf("%s (checksum %08x)\n", d.Name, d.Checksum)
		if d.MethodTable > 0 {
			fmt.Printf("  method table:  %d\n", d.MethodTable)
		}
		fmt.Printf("  classes:       %d\n", d.Classes)
		fmt.Printf("  methods:       %d\n", d.Methods)
		fmt.Printf("  hot:           %d\n", d.HotMethods)
		fmt.Printf("  startup:       %d\n", d.Startup)
		fmt.Printf("  post-startup:  %d\n", d.PostStartup)
	}
}
