// Package diagnostics models compiler diagnostics (errors and warnings) and
// renders them for a terminal, the way funvibe-funxy's diagnostics package is
// threaded through every pipeline stage and cmd/lsp's diagnostics.go renders
// them for an editor.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/mastercyb/trident/internal/token"
)

// Severity classifies a diagnostic as fatal or advisory.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Code is a short, stable diagnostic identifier (e.g. "H0003").
type Code string

const (
	// Errors (fatal; §7 of the spec).
	ErrTypeMismatch       Code = "T0001"
	ErrUndefinedName      Code = "T0002"
	ErrArityMismatch      Code = "T0003"
	ErrRecursionCycle     Code = "T0004"
	ErrModuleNotFound     Code = "M0001"
	ErrCircularImport     Code = "M0002"
	ErrEventArity         Code = "T0005"
	ErrIntrinsicModule    Code = "T0006"
	ErrMissingField       Code = "T0007"
	ErrUnknownField       Code = "T0008"
	ErrPureViolation      Code = "T0009"
	ErrUnboundSizeParam   Code = "T0010"
	ErrInternal           Code = "I0001"

	// Warnings (§7).
	WarnUnusedImport   Code = "H0001"
	WarnRedundantAsU32 Code = "H0003"
	WarnLoopBoundWaste Code = "H0004"
	WarnUnreachableArm Code = "H0005"
	WarnShadowing      Code = "H0006"
)

// DiagnosticError is a single diagnostic: a fatal error or an advisory
// warning, with enough context to render a source-pointing message. It
// implements the error interface so it can be returned directly from
// fallible entry points.
type DiagnosticError struct {
	Severity Severity
	Code     Code
	Span     token.Token
	Message  string
	Help     string
	Notes    []string
	File     string
}

func (d *DiagnosticError) Error() string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// NewError builds a fatal diagnostic.
func NewError(code Code, tok token.Token, message string) *DiagnosticError {
	return &DiagnosticError{Severity: Error, Code: code, Span: tok, Message: message}
}

// NewWarning builds an advisory diagnostic.
func NewWarning(code Code, tok token.Token, message string) *DiagnosticError {
	return &DiagnosticError{Severity: Warning, Code: code, Span: tok, Message: message}
}

// WithHelp attaches a help line and returns the receiver for chaining.
func (d *DiagnosticError) WithHelp(help string) *DiagnosticError {
	d.Help = help
	return d
}

// WithNote appends a note line and returns the receiver for chaining.
func (d *DiagnosticError) WithNote(note string) *DiagnosticError {
	d.Notes = append(d.Notes, note)
	return d
}

// HasErrors reports whether any diagnostic in the slice is fatal.
func HasErrors(diags []*DiagnosticError) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Render formats one diagnostic the way the CLI collaborator prints to
// stderr: file:line:col, message, the offending source line, a caret
// underline, then help/notes. source may be empty if unavailable.
func Render(d *DiagnosticError, source string, color bool) string {
	var b strings.Builder

	sevColor, reset := "", ""
	if color {
		reset = "\x1b[0m"
		if d.Severity == Error {
			sevColor = "\x1b[31m"
		} else {
			sevColor = "\x1b[33m"
		}
	}

	file := d.File
	if file == "" {
		file = "<input>"
	}
	fmt.Fprintf(&b, "%s%s[%s]%s %s:%d:%d: %s\n",
		sevColor, d.Severity, d.Code, reset, file, d.Span.Line, d.Span.Column, d.Message)

	if line := sourceLine(source, d.Span.Line); line != "" {
		fmt.Fprintf(&b, "  %s\n", line)
		col := d.Span.Column
		if col < 1 {
			col = 1
		}
		width := len(d.Span.Lexeme)
		if width < 1 {
			width = 1
		}
		b.WriteString("  " + strings.Repeat(" ", col-1) + strings.Repeat("^", width) + "\n")
	}

	if d.Help != "" {
		fmt.Fprintf(&b, "  help: %s\n", d.Help)
	}
	for _, n := range d.Notes {
		fmt.Fprintf(&b, "  note: %s\n", n)
	}
	return b.String()
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line-1 >= len(lines) {
		return ""
	}
	return lines[line-1]
}

// RenderAll renders every diagnostic in order, auto-detecting whether stderr
// is a real terminal to decide on ANSI coloring (mirrors funvibe-funxy's use
// of go-isatty for CLI color decisions).
func RenderAll(diags []*DiagnosticError, source string, fd uintptr) string {
	color := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	var b strings.Builder
	for _, d := range diags {
		b.WriteString(Render(d, source, color))
	}
	return b.String()
}

// ExitCode maps a diagnostic set + surrounding failure to the CLI exit code
// contract in spec.md §6: 0 success, 1 diagnostic errors, 2 usage error, 3
// I/O error.
func ExitCode(diags []*DiagnosticError, ioErr bool, usageErr bool) int {
	switch {
	case usageErr:
		return 2
	case ioErr:
		return 3
	case HasErrors(diags):
		return 1
	default:
		return 0
	}
}
