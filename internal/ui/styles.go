package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kubilitics/promits/internal/terminal"
)

type styles struct {
	title    lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	dim      lipgloss.Style
	warn     lipgloss.Style
	ok       lipgloss.Style
	fail     lipgloss.Style
	spin     lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			title: plain.Bold(true), cursor: plain, selected: plain, dim: plain,
			warn: plain, ok: plain, fail: plain, spin: plain,
		}
	}
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		ok:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		fail:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		spin:     lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
}

func defaultStyles() styles { return newStyles(!terminal.ColorDisabled()) }

// Warning renders msg as a warning line.
func Warning(msg string) string {
	return defaultStyles().warn.Render("warning: " + msg)
}
