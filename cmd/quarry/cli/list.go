package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry"
)

// ListCmd walks the catalog: schemas, their tables, and the columns of each
// table with type and nullability in declared order.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "list <extract>",
		Short:        "List schemas, tables and columns of an extract",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := quarry.Open(args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			schemas, err := quarry.SchemaNames(ctx, db)
			if err != nil {
				return err
			}

			for _, schema := range schemas {
				fmt.Printf("schema %q\n", schema)

				tables, err := quarry.TableNames(ctx, db, schema)
				if err != nil {
					return err
				}
				for _, table := range tables {
					definition, err := quarry.TableDefinition(ctx, db, table)
					if err != nil {
						return err
					}
					fmt.Printf("  table %s\n", table)
					for _, column := range definition.Columns {
						nullability := "NOT NULL"
						if column.Nullable {
							nullability = "NULL"
						}
						fmt.Printf("    %s %s %s\n", column.Name, column.Type, nullability)
					}
				}
			}
			return nil
		},
	}

	return cmd
}
