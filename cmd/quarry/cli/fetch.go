package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/clouddb"
	"github.com/quarrydata/quarry/domain/model"
)

// FetchCmd copies tables or a query result from a cloud database into an
// extract.
func FetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fetch <extract>",
		Short:        "Extract data from a cloud database",
		Long:         "Copy tables from a MySQL or PostgreSQL database into an extract. Without --table or --query every table of the source database is copied. Credentials travel in the connection URI (QUARRY_SOURCE_URI).",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			extractor, err := clouddb.New(ctx,
				viper.GetString("source"),
				viper.GetString("source-uri"),
				viper.GetString("source-database"))
			if err != nil {
				return err
			}
			defer func() { _ = extractor.Close() }()

			db, err := quarry.OpenContext(ctx, args[0], quarry.CreateModeCreateAndReplace)
			if err != nil {
				return err
			}
			defer db.Close()

			schema := viper.GetString("schema")

			if query := viper.GetString("query"); query != "" {
				target := viper.GetString("table")
				if target == "" {
					target = "query_result"
				}
				rows, err := clouddb.LoadQuery(ctx, extractor, db,
					model.NewTableName(schema, target), query)
				if err != nil {
					return err
				}
				fmt.Printf("Fetched %d row(s) into %s\n", rows, args[0])
				return nil
			}

			if table := viper.GetString("table"); table != "" {
				rows, err := clouddb.LoadTable(ctx, extractor, db, schema, table)
				if err != nil {
					return err
				}
				fmt.Printf("Fetched %d row(s) from %s into %s\n", rows, table, args[0])
				return nil
			}

			rows, err := clouddb.LoadAll(ctx, extractor, db, schema)
			if err != nil {
				return err
			}
			fmt.Printf("Fetched %d row(s) into %s\n", rows, args[0])
			return nil
		},
	}

	cmd.Flags().String("source", "mysql", "source database kind: mysql or postgres")
	cmd.Flags().String("source-uri", "", "source connection URI")
	cmd.Flags().String("source-database", "", "source database name")
	cmd.Flags().String("schema", "public", "schema to create the tables in")
	cmd.Flags().String("table", "", "copy only this source table")
	cmd.Flags().String("query", "", "copy the result of this query instead of tables")

	return cmd
}
