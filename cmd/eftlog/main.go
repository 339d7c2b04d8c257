package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	// Version information (set by ldflags)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	verbose bool
	cfgFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "eftlog",
	Short: "Escape from Tarkov log parser and monitor",
	Long: `eftlog is a tool for parsing and monitoring Escape from Tarkov log files.

It follows the game's logs to extract events like matchmaking, raid
starts, group changes, flea market sales and quest progress. Events are
output as JSON Lines for easy processing with other tools.

Flag defaults can be set in $HOME/.eftlog.yaml or through EFTLOG_*
environment variables (for example EFTLOG_FORMAT=pretty).

This is an unofficial tool and is not affiliated with Battlestate Games.`,
	SilenceUsage: true, // Don't show usage on error
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Config file (default: $HOME/.eftlog.yaml)")

	// Add subcommands
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("eftlog %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".eftlog")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("EFTLOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}
}

// applyConfig fills flags the user did not set on the command line from the
// config file and environment. Keys are the flag names.
func applyConfig(cmd *cobra.Command, v *viper.Viper) error {
	var firstErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) || firstErr != nil {
			return
		}
		val := v.GetString(f.Name)
		if f.Value.Type() == "stringSlice" {
			val = strings.Join(v.GetStringSlice(f.Name), ",")
		}
		if err := f.Value.Set(val); err != nil {
			firstErr = fmt.Errorf("config %s: %w", f.Name, err)
		}
	})
	return firstErr
}

// newLogger returns the debug logger for --verbose, or nil.
func newLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
