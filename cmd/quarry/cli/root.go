// Package cli wires the quarry subcommands: creating extracts from data
// files, querying and exporting them, mining git history and cloud
// databases, and publishing to a Quarry Server.
package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCmd builds the quarry command tree.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "quarry",
		Short:         "Work with quarry extract files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("no command specified")
		},
	}

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(CreateCmd())
	cmd.AddCommand(ReadCmd())
	cmd.AddCommand(ExecCmd())
	cmd.AddCommand(QueryCmd())
	cmd.AddCommand(ListCmd())
	cmd.AddCommand(ExportCmd())
	cmd.AddCommand(DefragCmd())
	cmd.AddCommand(ConvertCmd())
	cmd.AddCommand(GitCmd())
	cmd.AddCommand(FetchCmd())
	cmd.AddCommand(GenCmd())
	cmd.AddCommand(PackageCmd())
	cmd.AddCommand(UnpackageCmd())
	cmd.AddCommand(SwapCmd())
	cmd.AddCommand(PublishCmd())
	cmd.AddCommand(RefreshCmd())
	cmd.AddCommand(VersionCmd())

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	return cmd
}

// initConfig reads settings from the environment (QUARRY_ prefix) and, when
// present, from a quarry.yaml in the working directory or ~/.config/quarry.
func initConfig() {
	viper.SetEnvPrefix("QUARRY")
	viper.AutomaticEnv()

	viper.SetConfigName("quarry")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "quarry"))
	}
	_ = viper.ReadInConfig()
}
