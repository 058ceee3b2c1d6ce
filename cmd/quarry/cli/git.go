package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/gitstats"
)

// GitCmd mines a git repository's history into an extract.
func GitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "git <repo-path> <extract>",
		Short:        "Mine a git repository into an extract",
		Long:         "Extract a repository's history into the tables commits, changed_files and blame. Blame runs on a fixed-size worker pool; skip it with --skip-blame on large repositories.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := quarry.OpenContext(ctx, args[1], quarry.CreateModeCreateAndReplace)
			if err != nil {
				return err
			}
			defer db.Close()

			commits, err := gitstats.Extract(ctx, db, gitstats.Options{
				RepoPath:  args[0],
				Schema:    viper.GetString("schema"),
				Workers:   viper.GetInt("workers"),
				SkipBlame: viper.GetBool("skip-blame"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Extracted %d commit(s) from %s into %s\n", commits, args[0], args[1])
			return nil
		},
	}

	cmd.Flags().String("schema", "public", "schema to create the tables in")
	cmd.Flags().Int("workers", 0, "blame worker pool size (0 = number of CPUs)")
	cmd.Flags().Bool("skip-blame", false, "skip the blame table")

	return cmd
}
