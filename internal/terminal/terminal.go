// Package terminal detects what the attached terminal can do.
package terminal

import (
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"
)

// ColorDisabled returns true when ANSI colors should be disabled.
// - PROMITS_NO_COLOR or NO_COLOR env set (any value)
// - Windows without Windows Terminal (cmd.exe, older PowerShell)
func ColorDisabled() bool {
	if strings.TrimSpace(os.Getenv("PROMITS_NO_COLOR")) != "" || strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		return true
	}
	if runtime.GOOS != "windows" {
		return false
	}
	wtSession := strings.TrimSpace(os.Getenv("WT_SESSION"))
	termProgram := strings.TrimSpace(os.Getenv("TERM_PROGRAM"))
	return wtSession == "" && termProgram != "WindowsTerminal"
}

// fder is implemented by *os.File.
type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether v is attached to a terminal. Buffers and pipes
// are not.
func IsTerminal(v any) bool {
	f, ok := v.(fder)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// IsInteractive reports whether prompts can be shown: both in and out must be
// terminals.
func IsInteractive(in io.Reader, out io.Writer) bool {
	return IsTerminal(in) && IsTerminal(out)
}
