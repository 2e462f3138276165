package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joseph-ayodele/claims-validator/constants"
)

type styles struct {
	header lipgloss.Style
	title  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
	dim    lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{header: plain.Bold(true), title: plain.Bold(true), ok: plain, warn: plain, err: plain, dim: plain}
	}
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		err:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// status colors a job or claim status.
func (s styles) status(v string) string {
	switch v {
	case string(constants.JobStatusFinished), string(constants.ClaimStatusValidated):
		return s.ok.Render(v)
	case string(constants.JobStatusFailed), string(constants.ClaimStatusNotValidated):
		return s.err.Render(v)
	case string(constants.JobStatusPending), string(constants.JobStatusRunning):
		return s.warn.Render(v)
	default:
		return v
	}
}

// table renders rows under headers with columns padded to the widest cell.
func (s styles) table(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
	}

	line := func(cells []string, style *lipgloss.Style) string {
		parts := make([]string, len(headers))
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			cell = lipgloss.NewStyle().Width(widths[i]).Render(cell)
			if style != nil {
				cell = style.Render(cell)
			}
			parts[i] = cell
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	out := []string{line(headers, &s.header)}
	for _, row := range rows {
		out = append(out, line(row, nil))
	}
	_, _ = io.WriteString(w, strings.Join(out, "\n")+"\n")
}
