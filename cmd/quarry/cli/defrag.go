package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/driver"
)

// DefragCmd rewrites an extract densely. Without an output path the original
// file is replaced in place.
func DefragCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "defrag <extract> [output]",
		Short:        "Rewrite an extract densely",
		Long:         "Copy every table of an extract into a freshly written file, reclaiming space left by deleted rows. Without an output path the original file is replaced. The copy preserves row counts; re-running on its own output changes nothing.",
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			srcPath := args[0]
			inPlace := len(args) == 1
			dstPath := srcPath + ".defrag"
			if !inPlace {
				dstPath = args[1]
			}

			copied, err := quarry.DefragExtract(ctx, srcPath, dstPath)
			if err != nil {
				if inPlace {
					_ = os.Remove(dstPath)
				}
				return err
			}

			if inPlace {
				if err := os.Rename(dstPath, srcPath); err != nil {
					return fmt.Errorf("failed to replace original extract: %w", err)
				}
				dstPath = srcPath
			}
			fmt.Printf("Defragmented %s: %d row(s) copied to %s\n", srcPath, copied, dstPath)
			return nil
		},
	}

	return cmd
}

// ConvertCmd rewrites an extract with a different format version stamp.
func ConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "convert <extract> <output>",
		Short:        "Convert an extract to another format version",
		Long:         "Copy an extract into a new file stamped with the target format version. Use this to upgrade extracts written by older tooling.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			version := viper.GetInt("format-version")
			copied, err := quarry.CopyExtract(ctx, args[0], args[1], version)
			if err != nil {
				return err
			}
			fmt.Printf("Converted %s to format version %d: %d row(s) in %s\n", args[0], version, copied, args[1])
			return nil
		},
	}

	cmd.Flags().Int("format-version", driver.CurrentFormatVersion, "target extract format version")

	return cmd
}
