package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/clothgen/internal/engine/batch"
)

// View renders the model (Bubble Tea interface).
func (m BatchModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("\n\n")

	if m.state == BatchStateDone {
		result, err := m.Result()
		sb.WriteString(RenderSummary(result, err))
		sb.WriteString("\n")
		return sb.String()
	}

	s := m.snapshot
	sb.WriteString(m.bar.ViewAs(s.Fraction))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), valueStyle.Render(statusLine(s))))
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  running %d  awaiting %d  elapsed %s",
		s.Running, s.Awaiting, s.Elapsed.Truncate(100*time.Millisecond))))
	sb.WriteString("\n")
	if s.CurrentLabel != "" {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %s %s", IconPointer, s.CurrentLabel)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	switch m.state {
	case BatchStateCancelling:
		sb.WriteString(warningStyle.Render(IconPause + " cancelling, waiting for in-flight items"))
	default:
		sb.WriteString(mutedStyle.Render("c/esc cancel  q quit"))
	}
	sb.WriteString("\n")
	return sb.String()
}

// RenderSummary renders the final counts of a run.
func RenderSummary(result *batch.BatchResult, err error) string {
	if err != nil {
		return criticalStyle.Render(IconCross + " " + err.Error())
	}
	if result == nil {
		return mutedStyle.Render("no result")
	}

	var header string
	switch {
	case result.Status == batch.JobCancelled:
		header = warningStyle.Render(IconPause + " Cancelled")
	case result.HasFailures():
		header = criticalStyle.Render(IconCross + " Finished with failures")
	default:
		header = okStyle.Render(IconCheck + " Done")
	}

	counts := lipgloss.JoinHorizontal(lipgloss.Top,
		labelStyle.Render("completed "), valueStyle.Render(fmt.Sprint(result.Completed)),
		labelStyle.Render("  failed "), valueStyle.Render(fmt.Sprint(result.Failed)),
		labelStyle.Render("  cancelled "), valueStyle.Render(fmt.Sprint(result.Cancelled)),
	)

	lines := []string{header, counts}
	failures := result.Failures()
	for i, f := range failures {
		if i == maxFailuresShown {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  ... and %d more", len(failures)-i)))
			break
		}
		lines = append(lines, criticalStyle.Render("  "+IconCross+" ")+f.ID+": "+f.Error)
	}
	if result.FlushError != "" {
		lines = append(lines, criticalStyle.Render("  flush: "+result.FlushError))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
