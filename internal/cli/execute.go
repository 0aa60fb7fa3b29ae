package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/clothgen/internal/engine/batch"
	"github.com/rshade/clothgen/internal/host"
	"github.com/rshade/clothgen/internal/tui"
)

// progressInterval is how often plain mode prints progress.
const progressInterval = 250 * time.Millisecond

// maxFailuresListed bounds the per-item failure lines in the text summary.
const maxFailuresListed = 20

// interactive reports whether the TUI should drive the run.
func (f generateFlags) interactive(cmd *cobra.Command) bool {
	if f.plain || f.jsonOutput {
		return false
	}
	w, ok := cmd.ErrOrStderr().(*os.File)
	return ok && isTerminal(w)
}

// execute runs one batch under root and reports it on the command's writers.
func (p *pipeline) execute(cmd *cobra.Command, root string, f generateFlags) (*batch.BatchResult, error) {
	ctx := cmd.Context()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var (
		result *batch.BatchResult
		err    error
	)
	interactive := f.interactive(cmd)
	if interactive {
		start := func() (*batch.BatchResult, error) { return p.coord.Run(ctx, root, p.runOpts) }
		model := tui.NewBatchModel(p.title, p.coord, start, p.tick)
		result, err = tui.RunInteractive(ctx, model, cmd.ErrOrStderr())
	} else {
		stop := startProgressPrinter(cmd.ErrOrStderr(), p.coord.Progress(), f.jsonOutput)
		result, err = host.RunBatch(ctx, p.coord, root, p.runOpts, p.tick)
		stop()
	}

	if stats := p.tiered.Stats(); stats.MemoryHits+stats.DiskHits+stats.Misses > 0 {
		logger.Debug().Ctx(ctx).
			Int64("memory_hits", stats.MemoryHits).
			Int64("disk_hits", stats.DiskHits).
			Int64("misses", stats.Misses).
			Msg("texture cache stats")
	}
	p.writeMetrics(ctx, f.metricsFile)

	switch {
	case f.jsonOutput:
		if result != nil {
			if encErr := writeJSON(cmd.OutOrStdout(), result); encErr != nil {
				return result, encErr
			}
		}
	case !interactive:
		printSummary(cmd.OutOrStdout(), result, err)
	}
	return result, err
}

func (p *pipeline) writeMetrics(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := p.recorder.WriteTextfile(path); err != nil {
		logger.Warn().Ctx(ctx).Err(err).Str("path", path).Msg("could not write metrics textfile")
		return
	}
	logger.Debug().Ctx(ctx).Str("path", path).Msg("metrics written")
}

// startProgressPrinter prints "Processing: n/m (p%)" to w whenever the
// processed count changes. The returned func stops it and prints the final
// line.
func startProgressPrinter(w io.Writer, progress *batch.Progress, quiet bool) func() {
	if quiet {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	last := -1
	emit := func() {
		s := progress.Snapshot()
		if s.Total == 0 || s.Processed == last {
			return
		}
		last = s.Processed
		_, _ = fmt.Fprintf(w, "Processing: %d/%d (%.0f%%)\n", s.Processed, s.Total, s.Percent())
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				emit()
				return
			case <-ticker.C:
				emit()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

// printSummary writes the human-readable outcome of a run.
func printSummary(w io.Writer, result *batch.BatchResult, err error) {
	p := message.NewPrinter(language.English)
	if err != nil {
		_, _ = p.Fprintf(w, "Error: %v\n", err)
		return
	}
	if result == nil {
		return
	}

	status := "Done"
	switch {
	case result.Status == batch.JobCancelled:
		status = "Cancelled"
	case result.HasFailures():
		status = "Finished with failures"
	}
	_, _ = p.Fprintf(w, "%s: %d textures in %s (%d completed, %d failed, %d cancelled)\n",
		status, result.Total, result.Duration().Round(time.Millisecond),
		result.Completed, result.Failed, result.Cancelled)

	for i, o := range result.Failures() {
		if i == maxFailuresListed {
			_, _ = p.Fprintf(w, "  ... and %d more\n", result.Failed-i)
			break
		}
		_, _ = p.Fprintf(w, "  %s %s: %s\n", tui.IconCross, o.ID, o.Error)
	}
	if result.FlushError != "" {
		_, _ = p.Fprintf(w, "  flush: %s\n", result.FlushError)
	}
}
