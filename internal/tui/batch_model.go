package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/clothgen/internal/engine/batch"
)

// BatchState is the lifecycle of the batch view.
type BatchState int

const (
	// BatchStateRunning indicates items are still being processed.
	BatchStateRunning BatchState = iota
	// BatchStateCancelling indicates cancellation was requested and the run
	// is winding down.
	BatchStateCancelling
	// BatchStateDone indicates the run returned.
	BatchStateDone
)

// Default dimensions for the batch model.
const (
	defaultWidth     = 80
	barPadding       = 4
	maxBarWidth      = 72
	defaultInterval  = 16 * time.Millisecond
	maxFailuresShown = 5
)

// Runner is the part of a batch.Coordinator the view needs.
type Runner interface {
	Progress() *batch.Progress
	Executor() *batch.AffineExecutor
	Cancel() bool
}

// StartFunc begins the run. It is invoked on a command goroutine, never on
// the Update goroutine, because Run blocks until closures drained by Update
// have executed.
type StartFunc func() (*batch.BatchResult, error)

type tickMsg time.Time

type batchDoneMsg struct{}

// runState is shared between the model copies bubbletea hands around and the
// command goroutine running the batch.
type runState struct {
	once   sync.Once
	done   chan struct{}
	result *batch.BatchResult
	err    error
}

// BatchModel renders a running batch and owns its affine executor: every
// DrainOnce happens inside Update.
type BatchModel struct {
	runner   Runner
	start    StartFunc
	run      *runState
	title    string
	interval time.Duration

	snapshot batch.Snapshot
	drained  int

	state BatchState

	bar     progress.Model
	spinner spinner.Model
	width   int
}

// NewBatchModel creates a model for runner. interval is the tick period and
// defaults to one 60 Hz frame.
func NewBatchModel(title string, runner Runner, start StartFunc, interval time.Duration) BatchModel {
	if interval <= 0 {
		interval = defaultInterval
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return BatchModel{
		runner:   runner,
		start:    start,
		run:      &runState{done: make(chan struct{})},
		title:    title,
		interval: interval,
		state:    BatchStateRunning,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(maxBarWidth)),
		spinner:  s,
		width:    defaultWidth,
	}
}

// Init starts the run, the tick loop and the spinner (Bubble Tea interface).
func (m BatchModel) Init() tea.Cmd {
	return tea.Batch(m.startCmd(), m.tickCmd(), m.spinner.Tick)
}

func (m BatchModel) startCmd() tea.Cmd {
	run := m.run
	start := m.start
	return func() tea.Msg {
		run.once.Do(func() {
			defer close(run.done)
			run.result, run.err = start()
		})
		return batchDoneMsg{}
	}
}

func (m BatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages (Bubble Tea interface). It is the owner goroutine
// of the affine executor.
func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		stats := m.runner.Executor().DrainOnce()
		m.drained += stats.Ran
		m.snapshot = m.runner.Progress().Snapshot()
		if m.state == BatchStateDone {
			return m, nil
		}
		return m, m.tickCmd()

	case batchDoneMsg:
		m.state = BatchStateDone
		m.snapshot = m.runner.Progress().Snapshot()
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-barPadding, 10), maxBarWidth)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m BatchModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c", "esc":
		m.requestCancel()
	case "q", "ctrl+c":
		m.requestCancel()
		if m.state == BatchStateDone {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *BatchModel) requestCancel() {
	if m.state != BatchStateRunning {
		return
	}
	m.runner.Cancel()
	m.state = BatchStateCancelling
}

// State returns the current view state.
func (m BatchModel) State() BatchState { return m.state }

// Done is closed once the run has returned.
func (m BatchModel) Done() <-chan struct{} { return m.run.done }

// Result returns the run outcome. It is only meaningful after Done closes.
func (m BatchModel) Result() (*batch.BatchResult, error) {
	return m.run.result, m.run.err
}

// statusLine summarizes counters as "Processing: n/m (p%)".
func statusLine(s batch.Snapshot) string {
	return fmt.Sprintf("Processing: %d/%d (%.0f%%)", s.Processed, s.Total, s.Percent())
}
