package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kubilitics/promits/internal/ai"
)

func TestParseLookback(t *testing.T) {
	cases := []struct {
		in     string
		days   int
		warned bool
	}{
		{"8", 8, false},
		{" 30 ", 30, false},
		{"1", 1, false},
		{"365", 365, false},
		{"", 8, true},
		{"abc", 8, true},
		{"7.5", 8, true},
		{"0", 1, true},
		{"-3", 1, true},
		{"1000", 365, true},
		{"99999999999999999999", 365, true},
		{"-99999999999999999999", 1, true},
	}
	for _, tc := range cases {
		days, warn := ParseLookback(tc.in)
		if days != tc.days {
			t.Errorf("ParseLookback(%q) days = %d, want %d", tc.in, days, tc.days)
		}
		if (warn != "") != tc.warned {
			t.Errorf("ParseLookback(%q) warn = %q, warned want %v", tc.in, warn, tc.warned)
		}
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPickerNavigationAndSelect(t *testing.T) {
	m := newPicker(ai.ClaudeSonnet4, newStyles(false))
	if m.Selected() != ai.ClaudeSonnet4 {
		t.Fatalf("expected initial selection sonnet 4, got %s", m.Selected())
	}

	updated, _ := m.Update(key("up"))
	m = updated.(pickerModel)
	updated, _ = m.Update(key("up"))
	m = updated.(pickerModel)
	if m.Selected() != ai.ClaudeOpus4 {
		t.Fatalf("cursor should stop at the top, got %s", m.Selected())
	}

	for i := 0; i < 10; i++ {
		updated, _ = m.Update(key("j"))
		m = updated.(pickerModel)
	}
	if m.Selected() != ai.Claude3Haiku {
		t.Fatalf("cursor should stop at the bottom, got %s", m.Selected())
	}

	updated, cmd := m.Update(key("enter"))
	m = updated.(pickerModel)
	if !m.chosen || cmd == nil {
		t.Fatal("enter should choose and quit")
	}
	if !strings.Contains(m.View(), "claude-3-haiku-20240307") {
		t.Fatalf("final view should name the choice: %q", m.View())
	}
}

func TestPickerViewListsAllModels(t *testing.T) {
	v := newPicker(ai.DefaultModel, newStyles(false)).View()
	if !strings.HasPrefix(v, "Choose model") {
		t.Fatalf("unexpected header: %q", v)
	}
	for _, mm := range ai.Models() {
		if !strings.Contains(v, mm.String()) {
			t.Errorf("view missing %s", mm)
		}
	}
	if !strings.Contains(v, "> "+ai.DefaultModel.String()) {
		t.Error("cursor not on the default model")
	}
}

func TestPickerCancel(t *testing.T) {
	updated, _ := newPicker(ai.DefaultModel, newStyles(false)).Update(key("esc"))
	if !updated.(pickerModel).cancelled {
		t.Fatal("esc should cancel")
	}
}

func TestLookbackTyping(t *testing.T) {
	m := newLookback(newStyles(false))
	for _, r := range "14" {
		updated, _ := m.Update(key(string(r)))
		m = updated.(lookbackModel)
	}
	updated, _ := m.Update(key("enter"))
	m = updated.(lookbackModel)
	if !m.done {
		t.Fatal("enter should finish input")
	}
	if m.Value() != "14" {
		t.Fatalf("value = %q, want 14", m.Value())
	}
	days, warn := ParseLookback(m.Value())
	if days != 14 || warn != "" {
		t.Fatalf("parsed %d %q", days, warn)
	}
}

func TestSpinnerModelStops(t *testing.T) {
	m := newSpinnerModel(MsgAnalyzing, newStyles(false))
	if !strings.Contains(m.View(), MsgAnalyzing) {
		t.Fatalf("view = %q", m.View())
	}
	if brailleSpinner.FPS.Milliseconds() != 100 {
		t.Fatalf("spinner tick = %s", brailleSpinner.FPS)
	}

	updated, cmd := m.Update(stopMsg{final: MsgCompleted, ok: true})
	m = updated.(spinnerModel)
	if cmd == nil || !m.done {
		t.Fatal("stop should quit")
	}
	if m.View() != "✓ "+MsgCompleted+"\n" {
		t.Fatalf("final view = %q", m.View())
	}

	updated, _ = newSpinnerModel(MsgAnalyzing, newStyles(false)).Update(stopMsg{final: MsgFailed})
	if updated.(spinnerModel).View() != "✗ "+MsgFailed+"\n" {
		t.Fatalf("failure view = %q", updated.(spinnerModel).View())
	}
}

func TestSpinnerNonInteractive(t *testing.T) {
	var buf bytes.Buffer
	s := StartSpinner(&buf, false, MsgAnalyzing)
	s.Stop(MsgCompleted, true)
	s.Stop("ignored", true)

	if got := buf.String(); got != "Analyzing Log...\nAnalyze Completed\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestNilSpinnerStop(t *testing.T) {
	var s *Spinner
	s.Stop(MsgFailed, false)
}
