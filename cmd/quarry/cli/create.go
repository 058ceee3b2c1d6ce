package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry"
)

// CreateCmd builds an extract from CSV, TSV, Parquet or XLSX inputs.
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "create <extract> <input>...",
		Short:        "Create an extract from data files",
		Long:         "Create an extract from CSV, TSV, Parquet or XLSX files or directories. Compressed inputs (.gz, .bz2, .xz, .zst) are decompressed on the fly.",
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mode := quarry.CreateModeCreateAndReplace
			if !viper.GetBool("replace") {
				mode = quarry.CreateModeCreate
			}

			builder := quarry.NewExtractBuilder(args[0]).
				WithCreateMode(mode).
				WithSchema(viper.GetString("schema")).
				AddPaths(args[1:]...)
			validated, err := builder.Build(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = validated.Cleanup() }()

			db, err := validated.Open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			tables, err := quarry.SchemaNames(ctx, db)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s with %d schema(s)\n", args[0], len(tables))
			return nil
		},
	}

	cmd.Flags().String("schema", "public", "schema to create the tables in")
	cmd.Flags().Bool("replace", true, "replace an existing extract file")

	return cmd
}
