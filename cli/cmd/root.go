package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sorrymonster/cli/internal/apiclient"
	"sorrymonster/cli/internal/report"
)

const (
	defaultAPI     = "http://localhost:8083"
	defaultTimeout = 3 * time.Minute
)

// NewRootCmd returns the root command for the sorry CLI
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "sorry",
		Short:         "sorry.monster CLI for drafting corporate apologies",
		Long:          "sorry drafts channel-specific apologies for an incident using the sorry.monster apology service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sorry/config.yaml)")
	flags.String("api", defaultAPI, "apology service base URL")
	flags.String("token", "", "bearer token for the authenticated rate limit tier")
	flags.StringP("output", "o", "text", "output format: text|json|markdown|html")
	flags.Duration("timeout", defaultTimeout, "overall request timeout")
	flags.BoolP("verbose", "v", false, "enable verbose logging")

	for _, name := range []string{"api", "token", "output", "timeout", "verbose"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(newGenerateCmd(v))
	rootCmd.AddCommand(newInterpretCmd(v))
	rootCmd.AddCommand(newLuckyCmd(v))
	rootCmd.AddCommand(newModerateCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".sorry"))
			v.SetConfigName("config")
		}
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SORRY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing default config is fine; an explicit --config must exist.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

func newLogger(v *viper.Viper, cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if v.GetBool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func newClient(v *viper.Viper) *apiclient.Client {
	return apiclient.NewClient(v.GetString("api"), apiclient.WithToken(v.GetString("token")))
}

func outputFormat(v *viper.Viper) (report.Format, error) {
	return report.ParseFormat(v.GetString("output"))
}

func commandContext(v *viper.Viper, cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(cmd.Context(), timeout)
}
