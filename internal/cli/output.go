package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/recurrence"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	DangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	cellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Writer returns the command output, stdout unless Out is set
func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Printf writes to the context's output
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Writer(), format, args...)
}

// Print writes to the context's output
func (c *Context) Print(args ...any) {
	fmt.Fprint(c.Writer(), args...)
}

// Println writes a line to the context's output
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Writer(), args...)
}

// NextRunLabel describes when sch next plays after now
func NextRunLabel(sch models.Schedule, now time.Time) string {
	if !sch.Enabled {
		return "disabled"
	}
	next, ok := recurrence.Next(sch.Repeat, sch.ScheduledTime, now)
	if !ok {
		return "never"
	}
	return next.Format("Mon Jan 2 15:04")
}

// PrintSchedules renders schedules as aligned columns
func PrintSchedules(w io.Writer, schedules []models.Schedule, activeTestID string, now time.Time) {
	if len(schedules) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No schedules. Add one with 'chime add'."))
		return
	}

	headers := []string{"ID", "NAME", "TIME", "REPEAT", "VOLUME", "NEXT"}
	rows := make([][]string, 0, len(schedules))
	for _, sch := range schedules {
		name := sch.Name
		if sch.ID == activeTestID {
			name += " (testing)"
		}
		rows = append(rows, []string{
			shortID(sch.ID),
			name,
			models.FormatTimeLabel(sch.ScheduledTime),
			recurrence.Format(sch.Repeat),
			fmt.Sprintf("%d%%", sch.Volume),
			NextRunLabel(sch, now),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		out := make([]string, len(cells))
		for i, cell := range cells {
			out[i] = cellStyle.Width(widths[i] + 2).Render(style.Render(cell))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, out...)
	}

	fmt.Fprintln(w, render(headers, HeaderStyle))
	for i, row := range rows {
		style := lipgloss.NewStyle()
		if !schedules[i].Enabled {
			style = DimStyle
		}
		fmt.Fprintln(w, render(row, style))
	}
}

// shortID keeps uuids readable in tables; commands accept any unique prefix
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
