// Package pipeline wires report loading, parsing, filtering and diffing into
// a single comparison run.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/chmouel/coverage-delta/internal/diff"
	"github.com/chmouel/coverage-delta/internal/log"
	"github.com/chmouel/coverage-delta/internal/model"
	"github.com/chmouel/coverage-delta/internal/parser"
	"github.com/chmouel/coverage-delta/internal/source"
)

// ErrNoCoverage is returned when the head report does not exist.
var ErrNoCoverage = errors.New("no coverage report")

// Loader fetches raw report bytes from a location.
type Loader interface {
	Load(ctx context.Context, location string) ([]byte, error)
}

// Options configures a run.
type Options struct {
	// Prefix is the workspace prefix stripped from report paths.
	Prefix string
	// Allowed restricts both reports to these paths. nil disables filtering.
	Allowed map[string]struct{}
}

// Run loads head and, when baseLocation is set, base; then compares them.
// A missing or blank head yields ErrNoCoverage. A missing or blank base is
// logged and the run continues without one.
func Run(ctx context.Context, loader Loader, headLocation, baseLocation string, opts Options) (*model.Comparison, error) {
	if headLocation == source.Stdin && baseLocation == source.Stdin {
		return nil, errors.New("head and base cannot both be read from stdin")
	}

	var head, base []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := loader.Load(gctx, headLocation)
		if errors.Is(err, source.ErrNotFound) {
			return fmt.Errorf("%w: %w", ErrNoCoverage, err)
		}
		if err != nil {
			return err
		}
		if isBlank(data) {
			return ErrNoCoverage
		}
		head = data
		return nil
	})
	g.Go(func() error {
		data, err := loader.Load(gctx, baseLocation)
		if errors.Is(err, source.ErrNotFound) || (err == nil && baseLocation != "" && isBlank(data)) {
			log.Warnf("No coverage report found at '%s', ignoring...", baseLocation)
			return nil
		}
		if err != nil {
			return err
		}
		base = data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Compare(ctx, head, base, opts)
}

// Compare parses head and base concurrently and diffs them. A nil base means
// no baseline exists, which is different from an empty one.
func Compare(ctx context.Context, head, base []byte, opts Options) (*model.Comparison, error) {
	var headCov, baseCov *model.Coverage

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		headCov, err = parse("head", head)
		return err
	})
	if base != nil {
		g.Go(func() error {
			var err error
			baseCov, err = parse("base", base)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithField("files", len(headCov.Files)).Debugf("parsed head report: %.2f%% lines", model.Round(headCov.Ratio().Percent()))
	if baseCov != nil {
		log.WithField("files", len(baseCov.Files)).Debugf("parsed base report: %.2f%% lines", model.Round(baseCov.Ratio().Percent()))
	}

	if opts.Allowed != nil {
		headCov = parser.FilterByPaths(headCov, opts.Allowed, opts.Prefix)
		baseCov = parser.FilterByPaths(baseCov, opts.Allowed, opts.Prefix)
		log.Debugf("filtered to %d changed files: head files=%d", len(opts.Allowed), len(headCov.Files))
	}

	return diff.Compare(headCov, baseCov, diff.Options{Prefix: opts.Prefix}), nil
}

func isBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}

func parse(input string, data []byte) (*model.Coverage, error) {
	cov, err := parser.Parse(string(data))
	if err != nil {
		var malformed *parser.MalformedReportError
		if errors.As(err, &malformed) {
			malformed.Input = input
		}
		return nil, err
	}
	return cov, nil
}
