package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chmouel/coverage-delta/internal/config"
	"github.com/chmouel/coverage-delta/internal/log"
	"github.com/chmouel/coverage-delta/internal/source"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("coverage-delta failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage-delta",
		Short: "Compare coverage reports and render the difference",
		Long: `coverage-delta reads an LCOV tracefile (or a Go cover profile) for the
current change and, optionally, one for the base branch, and renders a
markdown report of the coverage difference suitable for a pull request
comment.

Reports can be read from a local path, from stdin ("-") or from S3
("s3://bucket/key").`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("config", "", "config file (default .coverage-delta.yaml in the working directory)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env "+log.EnvLevel+")")

	cmd.AddCommand(newReportCmd(), newBadgeCmd())
	return cmd
}

// loadConfig merges flags, environment and config file for cmd. aliases maps
// config keys to flag names that differ from them.
func loadConfig(cmd *cobra.Command, aliases map[string]string) (*config.Config, error) {
	v := config.New()
	for key, flag := range aliases {
		if err := bindAlias(v, cmd, key, flag); err != nil {
			return nil, err
		}
	}

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v, configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	log.InitLogger(cfg.LogLevel, cmd.ErrOrStderr())
	log.Debugf("config loaded: file=%s format=%s prefix=%s", v.ConfigFileUsed(), cfg.Format, cfg.Prefix)
	return cfg, nil
}

func bindAlias(v *viper.Viper, cmd *cobra.Command, key, flag string) error {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		return fmt.Errorf("unknown flag %q", flag)
	}
	return v.BindPFlag(key, f)
}

func newLoader(cmd *cobra.Command, cfg *config.Config) *source.Loader {
	var opts []source.Option
	if cfg.AWSProfile != "" {
		opts = append(opts, source.WithProfile(cfg.AWSProfile))
	}
	if cfg.AWSRegion != "" {
		opts = append(opts, source.WithRegion(cfg.AWSRegion))
	}
	loader := source.NewLoader(opts...)
	loader.Stdin = cmd.InOrStdin()
	return loader
}
