package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry/pds"
)

// PackageCmd bundles an extract into a packaged datasource archive.
func PackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "package <extract> [output]",
		Short:        "Package an extract as a datasource archive",
		Long:         "Bundle an extract with a manifest into a " + pds.Extension + " archive. The output defaults to the extract path with the archive extension.",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			extractPath := args[0]
			outputPath := strings.TrimSuffix(extractPath, filepath.Ext(extractPath)) + pds.Extension
			if len(args) == 2 {
				outputPath = args[1]
			}

			name := viper.GetString("name")
			if name == "" {
				base := filepath.Base(extractPath)
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}

			if err := pds.Build(outputPath, extractPath, name); err != nil {
				return err
			}
			fmt.Printf("Packaged %s as %s\n", extractPath, outputPath)
			return nil
		},
	}

	cmd.Flags().String("name", "", "datasource name (defaults to the extract file name)")

	return cmd
}

// UnpackageCmd extracts a packaged datasource archive.
func UnpackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "unpackage <package> <output-dir>",
		Short:        "Unpack a packaged datasource archive",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			extractPath, err := pds.Unpack(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Unpacked extract to %s\n", extractPath)
			return nil
		},
	}

	return cmd
}

// SwapCmd replaces the extract inside a packaged datasource, keeping the
// manifest metadata.
func SwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "swap <package> <extract>",
		Short:        "Swap the extract inside a packaged datasource",
		Long:         "Replace the extract inside a " + pds.Extension + " archive with a new one. The manifest keeps its name and entry name, so a subsequent publish updates the same datasource.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pds.SwapExtract(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Swapped extract in %s with %s\n", args[0], args[1])
			return nil
		},
	}

	return cmd
}
