package cli

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry"
	"github.com/quarrydata/quarry/domain/model"
)

// GenCmd writes a demo extract with fake customer and order data.
func GenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gen <extract>",
		Short:        "Generate a demo extract with fake data",
		Long:         "Create an extract with customers and orders tables filled with generated data. A fixed --seed makes the output reproducible.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := quarry.OpenContext(ctx, args[0], quarry.CreateModeCreateAndReplace)
			if err != nil {
				return err
			}
			defer db.Close()

			faker := gofakeit.New(viper.GetUint64("seed"))
			customerCount := viper.GetInt("customers")
			orderCount := viper.GetInt("orders")

			customersDef := model.NewTableDefinition(
				model.NewTableName("customers"),
				model.NewColumnNotNull("id", model.ColumnTypeBigInt),
				model.NewColumnNotNull("name", model.ColumnTypeText),
				model.NewColumn("email", model.ColumnTypeText),
				model.NewColumn("city", model.ColumnTypeText),
				model.NewColumnNotNull("loyalty_points", model.ColumnTypeBigInt),
				model.NewColumnNotNull("signed_up_at", model.ColumnTypeTimestamp),
			)
			if err := quarry.CreateTable(ctx, db, customersDef); err != nil {
				return err
			}
			customers, err := quarry.NewInserter(ctx, db, customersDef)
			if err != nil {
				return err
			}
			defer customers.Close()
			for id := 1; id <= customerCount; id++ {
				if err := customers.AddRow(
					int64(id),
					faker.Name(),
					faker.Email(),
					faker.City(),
					int64(faker.Number(0, 5000)),
					faker.DateRange(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Now()).Format(time.RFC3339),
				); err != nil {
					return err
				}
			}
			if _, err := customers.Execute(); err != nil {
				return err
			}

			ordersDef := model.NewTableDefinition(
				model.NewTableName("orders"),
				model.NewColumnNotNull("id", model.ColumnTypeBigInt),
				model.NewColumnNotNull("customer_id", model.ColumnTypeBigInt),
				model.NewColumnNotNull("product", model.ColumnTypeText),
				model.NewColumnNotNull("quantity", model.ColumnTypeBigInt),
				model.NewColumnNotNull("price", model.ColumnTypeDouble),
				model.NewColumnNotNull("ordered_at", model.ColumnTypeTimestamp),
			)
			if err := quarry.CreateTable(ctx, db, ordersDef); err != nil {
				return err
			}
			orders, err := quarry.NewInserter(ctx, db, ordersDef)
			if err != nil {
				return err
			}
			defer orders.Close()
			for id := 1; id <= orderCount; id++ {
				if err := orders.AddRow(
					int64(id),
					int64(faker.Number(1, customerCount)),
					faker.ProductName(),
					int64(faker.Number(1, 10)),
					faker.Price(1, 500),
					faker.DateRange(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Now()).Format(time.RFC3339),
				); err != nil {
					return err
				}
			}
			if _, err := orders.Execute(); err != nil {
				return err
			}

			fmt.Printf("Generated %s with %d customer(s) and %d order(s)\n", args[0], customerCount, orderCount)
			return nil
		},
	}

	cmd.Flags().Uint64("seed", 0, "random seed (0 = random)")
	cmd.Flags().Int("customers", 100, "number of customers to generate")
	cmd.Flags().Int("orders", 1000, "number of orders to generate")

	return cmd
}
