// Package cmd implements the midenclaim command line.
package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/red-hand/midenclaim/internal/config"
	"github.com/red-hand/midenclaim/internal/errors"
)

// envPrefix namespaces environment overrides, e.g. MIDENCLAIM_SCHEDULER_MAX_CONCURRENT.
const envPrefix = "MIDENCLAIM"

var rootCmd = &cobra.Command{
	Use:   "midenclaim",
	Short: "Bounded-concurrency faucet claim scheduler",
	Long: `midenclaim drives one claim loop per wallet against a testnet faucet.

Each account is claimed on a randomized schedule, retried on failure, and
admitted through a fixed-width concurrency gate so only a bounded number of
claims (browsers or commands) run at once.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// ExitCode maps an error returned by Execute to a process exit status:
// 1 when the run could not start (missing wallets file, unusable log
// directory, unknown executor), 2 for any other failure.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.IsFatal(err):
		return 1
	default:
		return 2
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/midenclaim/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env values become environment variables before viper reads them;
	// variables already set in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: ignoring .env: %v\n", err)
	}

	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}
}
