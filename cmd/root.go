package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/polsim/internal/buildinfo"
	"github.com/darmiel/polsim/internal/logging"
)

// global flags
var userConfig string

var f = NewFactory()

const (
	LogLevelKey   = logging.LevelKey
	LogFormatKey  = logging.FormatKey
	LogNoColorKey = logging.NoColorKey

	GitHubTokenKey   = "github.token"
	GitHubBaseURLKey = "github.base_url"
)

var rootCmd = &cobra.Command{
	Use:   "polsim",
	Short: fmt.Sprintf("Policy impact simulator (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `polsim evaluates access requests against ordered, first-match rule policies.
	It replays a historical access log through the currently deployed policy and a
	candidate policy, and reports who would newly be denied or permitted access.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := initConfig()
		logging.Init(nil)
		if configErr != nil { // handle error after logging is initialized
			return configErr
		}
		if configPath != "" {
			log.Debug().Msgf("using config file: %s", configPath)
		}
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("execution failed")
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	rootCmd.PersistentFlags().StringVar(&userConfig, "user-config", "",
		"User configuration file for default values (default is $HOME/.polsim.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(LogLevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(LogFormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(LogNoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.PersistentFlags().String("github-token", "", "Token for policies fetched from github:// locations")
	_ = viper.BindPFlag(GitHubTokenKey, rootCmd.PersistentFlags().Lookup("github-token"))

	rootCmd.PersistentFlags().String("github-url", "", "GitHub Enterprise API URL (default is github.com)")
	_ = viper.BindPFlag(GitHubBaseURLKey, rootCmd.PersistentFlags().Lookup("github-url"))

	viper.SetEnvPrefix("POLSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func initConfig() (string, error) {
	// reads in config file and ENV variables if set.
	if userConfig != "" {
		viper.SetConfigFile(userConfig)
	} else {
		// search order: current dir, $HOME, XDG config
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}

		config, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(config + "/polsim")
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".polsim")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundError) {
			return "", err
		}
	} else {
		return viper.ConfigFileUsed(), nil
	}

	return "", nil
}
