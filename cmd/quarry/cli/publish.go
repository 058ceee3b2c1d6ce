package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydata/quarry/server"
)

// serverConfigFromFlags reads the server connection settings bound through
// viper, so they can come from flags, QUARRY_* environment variables or a
// config file alike.
func serverConfigFromFlags() *server.Config {
	return &server.Config{
		Endpoint:    viper.GetString("server"),
		Site:        viper.GetString("site"),
		TokenName:   viper.GetString("token-name"),
		TokenSecret: viper.GetString("token-secret"),
	}
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", "", "Quarry Server base URL")
	cmd.Flags().String("site", "", "site content URL (empty = default site)")
	cmd.Flags().String("token-name", "", "personal access token name")
	cmd.Flags().String("token-secret", "", "personal access token secret")
}

// PublishCmd publishes an extract or packaged datasource to a server project.
func PublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "publish <file>",
		Short:        "Publish an extract or packaged datasource",
		Long:         "Sign in with a personal access token and publish the file into a project. Existing datasources of the same name are replaced with --overwrite.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := server.NewClient(serverConfigFromFlags())
			if err != nil {
				return err
			}
			if err := client.SignIn(ctx); err != nil {
				return err
			}
			defer func() { _ = client.SignOut(ctx) }()

			project, err := client.LookupProject(ctx, viper.GetString("project"))
			if err != nil {
				return err
			}

			datasource, err := client.PublishDatasource(ctx, project.ID, args[0], viper.GetBool("overwrite"))
			if err != nil {
				return err
			}
			fmt.Printf("Published datasource %q (id %s) to project %q\n",
				datasource.Name, datasource.ID, project.Name)
			return nil
		},
	}

	addServerFlags(cmd)
	cmd.Flags().String("project", "Default", "target project name")
	cmd.Flags().Bool("overwrite", false, "replace an existing datasource of the same name")

	return cmd
}

// RefreshCmd runs an incremental refresh against a published datasource.
func RefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "refresh <datasource-id> <payload-extract>",
		Short:        "Incrementally refresh a published datasource",
		Long:         "Upload a payload extract and apply upsert or insert actions to an already published datasource, then wait for the server job to finish. Upserts match rows on the --condition columns.",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		PreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := server.NewClient(serverConfigFromFlags())
			if err != nil {
				return err
			}
			if err := client.SignIn(ctx); err != nil {
				return err
			}
			defer func() { _ = client.SignOut(ctx) }()

			action := server.UpdateAction{
				Action:      viper.GetString("action"),
				TargetTable: viper.GetString("target-table"),
				SourceTable: viper.GetString("source-table"),
			}
			if condition := viper.GetString("condition"); condition != "" {
				action.Condition = strings.Split(condition, ",")
			}

			job, err := client.UpdateDatasourceData(ctx, args[0], args[1], []server.UpdateAction{action})
			if err != nil {
				return err
			}
			fmt.Printf("Update job %s started, waiting...\n", job.ID)

			if _, err := client.WaitForJob(ctx, job.ID); err != nil {
				return err
			}
			fmt.Printf("Datasource %s refreshed\n", args[0])
			return nil
		},
	}

	addServerFlags(cmd)
	cmd.Flags().String("action", "upsert", "update action: upsert or insert")
	cmd.Flags().String("target-table", "Extract", "table to update in the published datasource")
	cmd.Flags().String("source-table", "Extract", "table to read from the payload extract")
	cmd.Flags().String("condition", "", "comma-separated match columns for upsert")

	return cmd
}
