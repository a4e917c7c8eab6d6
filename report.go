package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chmouel/coverage-delta/internal/config"
	"github.com/chmouel/coverage-delta/internal/generator"
	"github.com/chmouel/coverage-delta/internal/log"
	"github.com/chmouel/coverage-delta/internal/parser"
	"github.com/chmouel/coverage-delta/internal/pipeline"
	"github.com/chmouel/coverage-delta/internal/source"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the coverage report, with deltas when a base report is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			return runReport(cmd, cfg)
		},
	}

	f := cmd.Flags()
	f.String("lcov-file", "./coverage/lcov.info", "head coverage report (path, - for stdin, or s3://bucket/key)")
	f.String("lcov-base", "", "base coverage report to compare against")
	f.String("title", "", "report heading (default \""+generator.DefaultTitle+"\")")
	f.Bool("hide-branch-coverage", false, "omit branch coverage figures")
	f.Bool("filter-changed-files", false, "only report files listed as changed")
	f.StringSlice("changed-files", nil, "changed file path (can be repeated)")
	f.String("changed-files-from", "", "file listing changed paths, one per line (- for stdin)")
	f.String("prefix", "", "workspace prefix stripped from report paths (env GITHUB_WORKSPACE)")
	f.StringP("output-file", "o", "", "write the report here instead of stdout")
	f.String("format", "markdown", "output format: markdown, json or yaml")
	f.Int("max-chars", config.DefaultMaxChars, "truncate markdown output to this many characters (0 disables)")
	f.Bool("line-detail", false, "list newly covered and uncovered line ranges per file")
	f.String("head-ref", "", "name of the head revision")
	f.String("base-ref", "", "name of the base revision")
	f.String("aws-profile", "", "AWS shared config profile for s3:// reports")
	f.String("aws-region", "", "AWS region for s3:// reports")
	return cmd
}

func runReport(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	format, err := generator.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	loader := newLoader(cmd, cfg)
	opts := pipeline.Options{Prefix: workspacePrefix(cfg.Prefix)}
	if cfg.FilterChangedFiles {
		if cfg.ChangedFilesFrom == source.Stdin && (cfg.LcovFile == source.Stdin || cfg.LcovBase == source.Stdin) {
			return errors.New("changed files and a coverage report cannot both be read from stdin")
		}
		paths, err := changedFiles(ctx, loader, cfg)
		if err != nil {
			return err
		}
		opts.Allowed = parser.PathSet(paths)
		log.Debugf("filtering to %d changed files", len(opts.Allowed))
	}

	cmp, err := pipeline.Run(ctx, loader, cfg.LcovFile, cfg.LcovBase, opts)
	if errors.Is(err, pipeline.ErrNoCoverage) {
		log.Infof("No coverage report found at '%s', exiting...", cfg.LcovFile)
		return nil
	}
	if err != nil {
		return err
	}

	body, err := generator.Generate(cmp, generator.Options{
		Title:              cfg.Title,
		HideBranchCoverage: cfg.HideBranchCoverage,
		LineDetail:         cfg.LineDetail,
		HeadRef:            cfg.HeadRef,
		BaseRef:            cfg.BaseRef,
		Format:             format,
	})
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}
	if format == generator.FormatMarkdown {
		body = []byte(generator.Truncate(string(body), cfg.MaxChars))
	}

	if err := generator.Write(body, cfg.OutputFile, cmd.OutOrStdout()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), generator.Summary(cmp))
	return nil
}

// workspacePrefix falls back to the module path of a go.mod in the working
// directory, since Go cover profiles name files by import path.
func workspacePrefix(prefix string) string {
	if prefix != "" {
		return prefix
	}
	modPath, err := parser.DetectModulePath(".")
	if err != nil {
		return ""
	}
	log.Debugf("using module path %s as prefix", modPath)
	return modPath + "/"
}

func changedFiles(ctx context.Context, loader pipeline.Loader, cfg *config.Config) ([]string, error) {
	paths := append([]string(nil), cfg.ChangedFiles...)
	if cfg.ChangedFilesFrom == "" {
		return paths, nil
	}

	data, err := loader.Load(ctx, cfg.ChangedFilesFrom)
	if err != nil {
		return nil, fmt.Errorf("reading changed files: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}
