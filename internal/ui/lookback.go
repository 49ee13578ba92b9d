package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kubilitics/promits/internal/config"
)

const lookbackTitle = "Choose duration"

// ParseLookback turns free text into a day count. Text that is not an
// integer yields the default of 8 days and out-of-range values are clamped.
// warn is non-empty whenever the input was not used as given.
func ParseLookback(input string) (days int, warn string) {
	s := strings.TrimSpace(input)
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		// Atoi saturates to the nearest int bound, which the clamp below handles.
		err = nil
	}
	switch {
	case err != nil:
		return config.DefaultLookbackDays, fmt.Sprintf("duration %q is not a whole number of days, using %d", s, config.DefaultLookbackDays)
	case n < config.MinLookbackDays:
		return config.MinLookbackDays, fmt.Sprintf("duration %d is below the minimum, using %d", n, config.MinLookbackDays)
	case n > config.MaxLookbackDays:
		return config.MaxLookbackDays, fmt.Sprintf("duration %d is above the maximum, using %d", n, config.MaxLookbackDays)
	}
	return n, ""
}

type lookbackModel struct {
	input     textinput.Model
	done      bool
	cancelled bool
	st        styles
}

func newLookback(st styles) lookbackModel {
	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(config.DefaultLookbackDays)
	ti.CharLimit = 16
	ti.Width = 16
	ti.Prompt = "> "
	ti.Focus()
	return lookbackModel{input: ti, st: st}
}

func (m lookbackModel) Init() tea.Cmd { return textinput.Blink }

func (m lookbackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m lookbackModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return fmt.Sprintf("%s %s\n%s\n",
		m.st.title.Render(lookbackTitle),
		m.st.dim.Render("(days)"),
		m.input.View())
}

func (m lookbackModel) Value() string { return m.input.Value() }
