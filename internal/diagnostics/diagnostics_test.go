package diagnostics

import (
	"strings"
	"testing"

	"github.com/mastercyb/trident/internal/token"
	"github.com/stretchr/testify/require"
)

func TestHasErrors(t *testing.T) {
	warn := NewWarning(WarnUnusedImport, token.Token{}, "w")
	err := NewError(ErrTypeMismatch, token.Token{}, "e")
	require.False(t, HasErrors(nil))
	require.False(t, HasErrors([]*DiagnosticError{warn}))
	require.True(t, HasErrors([]*DiagnosticError{warn, err}))
}

func TestRenderPointsAtSource(t *testing.T) {
	src := "module m\nlet x = ??\n"
	tok := token.Token{Line: 2, Column: 9, Lexeme: "??"}
	d := NewError(ErrTypeMismatch, tok, "unexpected token").WithHelp("remove it").WithNote("second line")
	d.File = "m.tri"

	out := Render(d, src, false)
	require.Contains(t, out, "error[T0001] m.tri:2:9: unexpected token")
	require.Contains(t, out, "let x = ??")
	require.Contains(t, out, "        ^^")
	require.Contains(t, out, "help: remove it")
	require.Contains(t, out, "note: second line")
}

func TestRenderColorOnlyWhenRequested(t *testing.T) {
	d := NewError(ErrTypeMismatch, token.Token{Line: 1, Column: 1}, "boom")
	plain := Render(d, "", false)
	require.NotContains(t, plain, "\x1b[")
	colored := Render(d, "", true)
	require.True(t, strings.Contains(colored, "\x1b[31m"))
}

func TestWarningRendersYellow(t *testing.T) {
	d := NewWarning(WarnUnusedImport, token.Token{Line: 1, Column: 1}, "unused")
	colored := Render(d, "", true)
	require.Contains(t, colored, "\x1b[33m")
}

func TestExitCodeContract(t *testing.T) {
	errDiag := []*DiagnosticError{NewError(ErrTypeMismatch, token.Token{}, "e")}
	require.Equal(t, 0, ExitCode(nil, false, false))
	require.Equal(t, 1, ExitCode(errDiag, false, false))
	require.Equal(t, 2, ExitCode(errDiag, true, true)) // usage wins
	require.Equal(t, 3, ExitCode(nil, true, false))
}

func TestErrorInterface(t *testing.T) {
	d := NewError(ErrUndefinedName, token.Token{}, "undefined name \"x\"")
	require.Equal(t, `T0002: undefined name "x"`, d.Error())
}
