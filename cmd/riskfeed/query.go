package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/StrathCole/riskfeed/pkg/feed"
	"github.com/StrathCole/riskfeed/pkg/server/audit"
	"github.com/StrathCole/riskfeed/pkg/server/sources"
)

func newPriceCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "price <asset>",
		Short: "Fetch and aggregate the price of one asset",
		Example: `  riskfeed price ETH/USD
  riskfeed price BTC --config ./config.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sources.ValidateAsset(args[0]); err != nil {
				return err
			}

			system, err := buildSystem(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			data, err := system.GetAggregatedPrice(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall request timeout")
	return cmd
}

func newAuditsCmd(opts *rootOptions) *cobra.Command {
	var (
		severity string
		category string
	)

	cmd := &cobra.Command{
		Use:   "audits <protocol>",
		Short: "List audit findings for a protocol from every audit database",
		Example: `  riskfeed audits uniswap-v3
  riskfeed audits aave --severity critical`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := buildSystem(opts)
			if err != nil {
				return err
			}

			entries := system.GetAuditData(cmd.Context(), args[0])

			filtered := make([]audit.Entry, 0, len(entries))
			for _, e := range entries {
				if severity != "" && e.Severity != audit.ParseSeverity(severity) {
					continue
				}
				if category != "" && e.Category != audit.ParseCategory(category) {
					continue
				}
				filtered = append(filtered, e)
			}

			return printJSON(cmd.OutOrStdout(), filtered)
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "Only show findings of this severity ("+strings.Join(severityNames(), ", ")+")")
	cmd.Flags().StringVar(&category, "category", "", "Only show findings in this category")
	return cmd
}

func buildSystem(opts *rootOptions) (*feed.System, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := initLogger(cfg, false)
	if err != nil {
		return nil, err
	}
	return feed.New(cfg, logger)
}

func severityNames() []string {
	return []string{
		string(audit.SeverityCritical),
		string(audit.SeverityHigh),
		string(audit.SeverityMedium),
		string(audit.SeverityLow),
		string(audit.SeverityInformational),
	}
}
