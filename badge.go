package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chmouel/coverage-delta/internal/badge"
	"github.com/chmouel/coverage-delta/internal/config"
	"github.com/chmouel/coverage-delta/internal/log"
	"github.com/chmouel/coverage-delta/internal/model"
	"github.com/chmouel/coverage-delta/internal/pipeline"
)

func newBadgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badge",
		Short: "Write an SVG coverage badge for the head report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, map[string]string{
				"badge-metric": "metric",
				"badge-output": "output",
			})
			if err != nil {
				return err
			}
			return runBadge(cmd, cfg)
		},
	}

	defaults := badge.DefaultThresholds()
	f := cmd.Flags()
	f.String("lcov-file", "./coverage/lcov.info", "coverage report (path, - for stdin, or s3://bucket/key)")
	f.String("prefix", "", "workspace prefix stripped from report paths")
	f.String("metric", "lines", "figure shown on the badge: lines, branches or functions")
	f.Float64("badge-red", defaults.Red, "coverage below this is red")
	f.Float64("badge-yellow", defaults.Yellow, "coverage below this is yellow")
	f.StringP("output", "o", "coverage.svg", "badge file (- for stdout)")
	f.String("aws-profile", "", "AWS shared config profile for s3:// reports")
	f.String("aws-region", "", "AWS region for s3:// reports")
	return cmd
}

func runBadge(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	thresholds := badge.Thresholds{Red: cfg.BadgeRed, Yellow: cfg.BadgeYellow}
	if err := thresholds.Validate(); err != nil {
		return err
	}

	cmp, err := pipeline.Run(ctx, newLoader(cmd, cfg), cfg.LcovFile, "", pipeline.Options{Prefix: workspacePrefix(cfg.Prefix)})
	if errors.Is(err, pipeline.ErrNoCoverage) {
		log.Infof("No coverage report found at '%s', exiting...", cfg.LcovFile)
		return nil
	}
	if err != nil {
		return err
	}

	label, ratio := metric(cmp, cfg.BadgeMetric)
	if ratio == nil {
		return fmt.Errorf("report has no %s coverage data", label)
	}

	b := badge.Badge{Label: "coverage", Coverage: model.Round(ratio.Percent()), Thresholds: thresholds}
	if label != "lines" {
		b.Label = label
	}

	if cfg.BadgeOutput == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), b.SVG())
		return err
	}
	if err := b.WriteFile(cfg.BadgeOutput); err != nil {
		return err
	}
	log.Infof("Badge written to %s (%.2f%%)", cfg.BadgeOutput, b.Coverage)
	return nil
}

func metric(cmp *model.Comparison, name string) (string, *model.Ratio) {
	switch strings.ToLower(name) {
	case "branches":
		return "branches", cmp.Branches.Head
	case "functions":
		return "functions", cmp.Functions.Head
	default:
		return "lines", cmp.Lines.Head
	}
}
