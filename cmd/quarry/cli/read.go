package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/domain/model"
)

// ReadCmd prints all rows of one table.
func ReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "read <extract> <table>",
		Short:        "Print all rows of a table",
		Long:         "Print all rows of a table. Qualify the table with a schema as schema.table; unqualified names resolve in the public schema.",
		Args:         cobra.ExactArgs(2),
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

			name := model.ParseTableName(args[1])
			rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", name.Identifier()))
			if err != nil {
				return err
			}
			defer rows.Close()

			count, err := printRows(rows)
			if err != nil {
				return err
			}
			fmt.Printf("%d row(s) in %s\n", count, name)
			return nil
		},
	}

	return cmd
}

// QueryCmd runs a SELECT statement and prints the result.
func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "query <extract> <sql>",
		Short:        "Run a query and print the result",
		Args:         cobra.ExactArgs(2),
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

			rows, err := db.QueryContext(ctx, args[1])
			if err != nil {
				return err
			}
			defer rows.Close()

			count, err := printRows(rows)
			if err != nil {
				return err
			}
			fmt.Printf("%d row(s)\n", count)
			return nil
		},
	}

	return cmd
}

// ExecCmd runs a SQL command and prints the affected row count.
func ExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "exec <extract> <sql>",
		Short:        "Run a SQL command and print the affected row count",
		Long:         "Run an INSERT, UPDATE or DELETE command against an extract and print how many rows were affected.",
		Args:         cobra.ExactArgs(2),
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

			affected, err := quarry.ExecuteCommand(ctx, db, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%d row(s) affected\n", affected)
			return nil
		},
	}

	return cmd
}
