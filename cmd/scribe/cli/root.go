package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scribe",
		Short: "API server for the volunteer transcription community",
		Long: `Scribe is the HTTP API behind the volunteer transcription community.

It serves aggregate transcription statistics, handles the claim/done/unclaim
workflow endpoints, and administers the API keys that gate everything else.
Key material lives in an embedded SQLite store; community counters and
volunteer profiles are read from Redis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./scribe.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite key store (default: ~/.scribe)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newKeyCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scribe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.scribe")
	}

	viper.SetEnvPrefix("SCRIBE")
	viper.AutomaticEnv()
	viper.ReadInConfig() // config file is optional
}
