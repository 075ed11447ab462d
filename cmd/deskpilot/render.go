package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"deskpilot/internal/bus"
	"deskpilot/internal/executor"
	"deskpilot/internal/protocol"
)

// Semantic colors, shared by every rendered block.
var (
	colorSuccess = lipgloss.Color("#8BC34A")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorMuted   = lipgloss.Color("#6c7a89")

	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleLabel   = lipgloss.NewStyle().Bold(true)

	styleBlock = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case string(executor.StatusSuccess):
		return styleSuccess
	case string(executor.StatusFailed):
		return styleError
	default:
		return styleWarning
	}
}

// renderStatus formats a terminal program status as a bordered block.
func renderStatus(st *bus.ProgramStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", styleLabel.Render("Program"), st.ProgramID)
	fmt.Fprintf(&b, "%s %s\n", styleLabel.Render("Status "), statusStyle(st.Status).Render(st.Status))
	fmt.Fprintf(&b, "%s %d/%d actions in %s\n",
		styleLabel.Render("Done   "), st.ActionsCompleted, st.TotalActions,
		styleMuted.Render(fmt.Sprintf("%dms", st.DurationMs)))

	if st.Error != "" {
		fmt.Fprintf(&b, "%s %s\n", styleLabel.Render("Error  "), styleError.Render(st.Error))
	}
	if d := st.ErrorDetails; d != nil {
		fmt.Fprintf(&b, "%s action %d (%s): [%s] %s\n",
			styleLabel.Render("Detail "), d.ActionIndex, d.ActionName, d.ErrorKind, d.ErrorMessage)
	}
	return styleBlock.Render(strings.TrimRight(b.String(), "\n"))
}

// renderValidation formats a validation result for one program file.
func renderValidation(path string, res *protocol.ValidationResult) string {
	var b strings.Builder
	verdict := styleSuccess.Render("valid")
	if res == nil || !res.IsValid {
		verdict = styleError.Render("invalid")
	}
	fmt.Fprintf(&b, "%s %s\n", styleLabel.Render(path), verdict)

	if res != nil {
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "  %s %s\n", styleError.Render("error"), e)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "  %s %s\n", styleWarning.Render("warn "), w)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
