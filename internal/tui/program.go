package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/clothgen/internal/engine/batch"
	"github.com/rshade/clothgen/internal/host"
	"github.com/rshade/clothgen/internal/logging"
)

// RunInteractive shows model on out until the run returns. If the program
// exits early, for example because the terminal went away, the run is
// cancelled and ticked to completion from the calling goroutine so no item is
// left awaiting. A run the program never got to start is started then and
// driven the same way.
func RunInteractive(ctx context.Context, model BatchModel, out io.Writer) (*batch.BatchResult, error) {
	p := tea.NewProgram(model, tea.WithOutput(out))
	final, err := p.Run()

	m, ok := final.(BatchModel)
	if !ok {
		m = model
	}
	select {
	case <-m.Done():
	default:
		logger := logging.FromContext(ctx)
		logger.Warn().Err(err).Msg("interactive view exited before the run finished")
		m.runner.Cancel()
		go m.startCmd()()
		host.Drive(ctx, m.runner.Executor(), m.interval, m.Done())
	}

	result, runErr := m.Result()
	if runErr != nil {
		return result, runErr
	}
	if err != nil {
		return result, fmt.Errorf("running interactive view: %w", err)
	}
	return result, nil
}
