package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Status messages shown around the analysis call.
const (
	MsgAnalyzing = "Analyzing Log"
	MsgCompleted = "Analyze Completed"
	MsgFailed    = "Analyze Failed"
)

// brailleSpinner ticks every 100ms.
var brailleSpinner = spinner.Spinner{
	Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	FPS:    100 * time.Millisecond,
}

type stopMsg struct {
	final string
	ok    bool
}

type spinnerModel struct {
	spin  spinner.Model
	msg   string
	final string
	ok    bool
	done  bool
	st    styles
}

func newSpinnerModel(msg string, st styles) spinnerModel {
	s := spinner.New(spinner.WithSpinner(brailleSpinner), spinner.WithStyle(st.spin))
	return spinnerModel{spin: s, msg: msg, st: st}
}

func (m spinnerModel) Init() tea.Cmd { return m.spin.Tick }

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.final, m.ok, m.done = msg.final, msg.ok, true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		if m.ok {
			return m.st.ok.Render("✓") + " " + m.final + "\n"
		}
		return m.st.fail.Render("✗") + " " + m.final + "\n"
	}
	return m.spin.View() + " " + m.msg
}

// Spinner animates a status line while a blocking call runs. On a
// non-terminal writer it prints the start and final messages as plain lines.
type Spinner struct {
	out  io.Writer
	prog *tea.Program
	done chan struct{}
	once sync.Once
}

// StartSpinner begins showing msg on out.
func StartSpinner(out io.Writer, interactive bool, msg string) *Spinner {
	s := &Spinner{out: out, done: make(chan struct{})}
	if !interactive {
		fmt.Fprintln(out, msg+"...")
		close(s.done)
		return s
	}
	s.prog = tea.NewProgram(newSpinnerModel(msg, defaultStyles()),
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)
	go func() {
		defer close(s.done)
		_, _ = s.prog.Run()
	}()
	return s
}

// Stop replaces the status line with final. It is safe to call more than
// once; only the first call has an effect.
func (s *Spinner) Stop(final string, ok bool) {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.prog == nil {
			fmt.Fprintln(s.out, final)
			return
		}
		s.prog.Send(stopMsg{final: final, ok: ok})
		<-s.done
	})
}
