package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kubilitics/promits/internal/ai"
)

const pickerTitle = "Choose model"

// pickerModel is a single-choice list over the supported models.
type pickerModel struct {
	models    []ai.Model
	cursor    int
	chosen    bool
	cancelled bool
	st        styles
}

func newPicker(initial ai.Model, st styles) pickerModel {
	m := pickerModel{models: ai.Models(), st: st}
	for i, mm := range m.models {
		if mm == initial {
			m.cursor = i
		}
	}
	return m
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.models)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = len(m.models) - 1
	case "enter":
		m.chosen = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.chosen {
		return fmt.Sprintf("%s %s\n", m.st.title.Render(pickerTitle+":"), m.st.selected.Render(m.Selected().String()))
	}
	if m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.st.title.Render(pickerTitle))
	b.WriteString("\n")
	for i, mm := range m.models {
		if i == m.cursor {
			b.WriteString(m.st.cursor.Render("> " + mm.String()))
		} else {
			b.WriteString("  " + mm.String())
		}
		b.WriteString("\n")
	}
	b.WriteString(m.st.dim.Render("↑/↓ move • enter select • esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m pickerModel) Selected() ai.Model {
	if m.cursor < 0 || m.cursor >= len(m.models) {
		return ai.DefaultModel
	}
	return m.models[m.cursor]
}
