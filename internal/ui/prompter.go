package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kubilitics/promits/internal/ai"
	"github.com/kubilitics/promits/internal/apperr"
)

const opPrompt = "prompt"

// Prompter asks the user for the run's inputs.
type Prompter interface {
	// Lookback returns the raw text typed for the duration in days.
	Lookback() (string, error)
	// Model returns the chosen model; initial is preselected.
	Model(initial ai.Model) (ai.Model, error)
}

// TeaPrompter runs each prompt as a short bubbletea program.
type TeaPrompter struct {
	In  io.Reader
	Out io.Writer
	st  styles
}

func NewTeaPrompter(in io.Reader, out io.Writer) *TeaPrompter {
	return &TeaPrompter{In: in, Out: out, st: defaultStyles()}
}

func (p *TeaPrompter) run(m tea.Model) (tea.Model, error) {
	prog := tea.NewProgram(m, tea.WithInput(p.In), tea.WithOutput(p.Out))
	final, err := prog.Run()
	if err != nil {
		return nil, apperr.NewInput(opPrompt, "run prompt: %v", err)
	}
	return final, nil
}

func (p *TeaPrompter) Lookback() (string, error) {
	final, err := p.run(newLookback(p.st))
	if err != nil {
		return "", err
	}
	m := final.(lookbackModel)
	if m.cancelled {
		return "", apperr.NewInput(opPrompt, "duration prompt cancelled")
	}
	return m.Value(), nil
}

func (p *TeaPrompter) Model(initial ai.Model) (ai.Model, error) {
	final, err := p.run(newPicker(initial, p.st))
	if err != nil {
		return 0, err
	}
	m := final.(pickerModel)
	if m.cancelled {
		return 0, apperr.NewInput(opPrompt, "model selection cancelled")
	}
	return m.Selected(), nil
}
