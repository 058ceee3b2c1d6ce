package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/domain/model"
)

// ExportCmd dumps all tables of an extract, or a single one, back to files.
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "export <extract> <output-dir>",
		Short:        "Export extract tables to data files",
		Long:         "Export all tables of an extract to an output directory, one file per table. Use --table to export a single table, --format for csv/tsv/parquet/xlsx, and --compression for gz/xz/zstd on delimited formats.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			format, ok := model.ParseOutputFormat(viper.GetString("format"))
			if !ok {
				return fmt.Errorf("unsupported output format: %s", viper.GetString("format"))
			}
			compression, ok := model.ParseCompressionType(viper.GetString("compression"))
			if !ok {
				return fmt.Errorf("unsupported compression type: %s", viper.GetString("compression"))
			}
			opts := model.NewDumpOptions().WithFormat(format).WithCompression(compression)

			db, err := quarry.Open(args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			if table := viper.GetString("table"); table != "" {
				if err := os.MkdirAll(args[1], 0750); err != nil {
					return err
				}
				name := model.ParseTableName(table)
				outputPath := filepath.Join(args[1], name.StoredName()+opts.FileExtension())
				if err := quarry.ExportTable(ctx, db, name, outputPath, opts); err != nil {
					return err
				}
				fmt.Printf("Exported %s to %s\n", name, outputPath)
				return nil
			}

			if err := quarry.DumpDatabase(ctx, db, args[1], opts); err != nil {
				return err
			}
			fmt.Printf("Exported all tables to %s\n", args[1])
			return nil
		},
	}

	cmd.Flags().String("table", "", "export only this table (schema.table)")
	cmd.Flags().String("format", "csv", "output format: csv, tsv, parquet or xlsx")
	cmd.Flags().String("compression", "none", "compression for delimited formats: none, gz, xz or zstd")

	return cmd
}
