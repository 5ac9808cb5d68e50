// Package batch encodes many charts concurrently. A chart that fails is
// reported and skipped; it never stops the others and never leaves output.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/james-see/beatgrid/pkg/beatmap"
	"github.com/james-see/beatgrid/pkg/converter"
	"github.com/james-see/beatgrid/pkg/manifest"
)

// ErrDuplicateOutput marks an input whose output path is already claimed
// by an earlier input of the same run
var ErrDuplicateOutput = errors.New("duplicate output path")

// Options configures a batch run
type Options struct {
	// Workers bounds concurrent encodes; values below 1 mean one
	Workers int
	// OutputDir receives <name>.osg files; empty writes next to each input
	OutputDir string
	Converter *converter.Converter
	// Manifest, when set, gets one entry per input
	Manifest *manifest.Store
	Logger   *slog.Logger
}

// Result is the outcome for one input
type Result struct {
	Source string
	Output string
	Stats  converter.Stats
	Rows   int
	Bytes  int64
	Err    error
}

// OK reports whether the input was encoded
func (r Result) OK() bool { return r.Err == nil }

// Summary aggregates a run. Results follow input order.
type Summary struct {
	Results  []Result
	OK       int
	Failed   int
	Bytes    int64
	Duration time.Duration
}

// Failures returns the failed results
func (s *Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Discover returns every .osu file under dir, sorted
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".osu") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Run encodes inputs on a pool of opts.Workers goroutines. The returned error
// is non-nil only when ctx is cancelled or the manifest cannot be written;
// chart failures are reported through the Summary. After a run has started
// the Summary is returned even with an error, and inputs that never ran
// carry the cancellation as their Err.
func Run(ctx context.Context, inputs []string, opts Options) (*Summary, error) {
	if opts.Converter == nil {
		opts.Converter = converter.New(beatmap.DefaultConfig())
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	start := time.Now()
	results := make([]Result, len(inputs))
	claimed := make(map[string]string, len(inputs))
	for i, in := range inputs {
		out := outputPath(in, opts.OutputDir)
		results[i] = Result{Source: in, Output: out}
		if prev, ok := claimed[out]; ok {
			results[i].Err = fmt.Errorf("%w: %s also written by %s", ErrDuplicateOutput, out, prev)
			continue
		}
		claimed[out] = in
	}

	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range results {
		g.Go(func() error {
			r := &results[i]
			if err := ctx.Err(); err != nil {
				if r.Err == nil {
					r.Err = err
				}
				return err
			}
			if r.Err == nil {
				encode(opts.Converter, r)
			}
			n := done.Add(1)
			logResult(opts.Logger, r, n, len(results))

			if opts.Manifest != nil {
				return opts.Manifest.Record(entry(r))
			}
			return nil
		})
	}
	err := g.Wait()

	s := &Summary{Results: results, Duration: time.Since(start)}
	for _, r := range results {
		if r.OK() {
			s.OK++
			s.Bytes += r.Bytes
		} else {
			s.Failed++
		}
	}
	return s, err
}

func encode(conv *converter.Converter, r *Result) {
	e, err := conv.EncodeFile(r.Source)
	if err != nil {
		r.Err = err
		return
	}
	data, err := converter.Marshal(e)
	if err != nil {
		r.Err = err
		return
	}
	if err := converter.WriteFile(r.Output, data); err != nil {
		r.Err = err
		return
	}
	r.Stats = e.Stats
	r.Rows = e.Grid.Shape[0]
	r.Bytes = int64(len(data))
}

func outputPath(input, dir string) string {
	name := converter.UnitName(input) + converter.FormatOsg.Ext()
	if dir == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	return filepath.Join(dir, name)
}

func logResult(l *slog.Logger, r *Result, n int64, total int) {
	if r.OK() {
		l.Info("encoded",
			"source", r.Source,
			"output", r.Output,
			"rows", r.Rows,
			"events", r.Stats.Events,
			"dropped", r.Stats.Dropped,
			"progress", fmt.Sprintf("%d/%d", n, total))
		return
	}
	l.Warn("failed",
		"source", r.Source,
		"kind", beatmap.ErrorKind(r.Err),
		"err", r.Err,
		"progress", fmt.Sprintf("%d/%d", n, total))
}

func entry(r *Result) manifest.Entry {
	e := manifest.Entry{
		Source:  r.Source,
		Name:    converter.UnitName(r.Source),
		Status:  manifest.StatusOK,
		Rows:    r.Rows,
		Events:  r.Stats.Events,
		Sliders: r.Stats.Sliders,
		Dropped: r.Stats.Dropped,
		Output:  r.Output,
		Bytes:   r.Bytes,
	}
	if r.Err != nil {
		e.Status = manifest.StatusFailed
		e.ErrorKind = beatmap.ErrorKind(r.Err)
		e.Message = r.Err.Error()
		e.Output = ""
	}
	return e
}
