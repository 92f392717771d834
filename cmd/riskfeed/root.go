package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/StrathCole/riskfeed/pkg/config"
	"github.com/StrathCole/riskfeed/pkg/logging"
	"github.com/StrathCole/riskfeed/pkg/version"
)

const defaultConfigPath = "config/config.yaml"

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "riskfeed",
		Short: "Oracle price aggregation and audit data feed",
		Long: `riskfeed queries several price oracles for an asset, combines their
answers into one price, flags suspicious readings and merges findings from
vulnerability audit databases.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", defaultConfigPath, "Path to configuration file")

	cmd.AddCommand(
		newServeCmd(opts),
		newPriceCmd(opts),
		newAuditsCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// loadConfig reads and validates the configuration file.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger installs the configured logger. stdoutAllowed=false moves
// stdout logging to stderr so command output stays machine readable.
func initLogger(cfg *config.Config, stdoutAllowed bool) (*logging.Logger, error) {
	output := cfg.Logging.Output
	if !stdoutAllowed && (output == "" || output == "stdout") {
		output = "stderr"
	}

	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, output)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetGlobal(logger)
	return logger, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
