package pipeline

import (
	"errors"
	"testing"

	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/token"
	"github.com/stretchr/testify/require"
)

type recordingStage struct {
	name string
	log  *[]string
	fn   func(*Context) *Context
}

func (s recordingStage) Name() string { return s.name }
func (s recordingStage) Process(ctx *Context) *Context {
	*s.log = append(*s.log, s.name)
	if s.fn != nil {
		return s.fn(ctx)
	}
	return ctx
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	var log []string
	p := New(
		recordingStage{name: "a", log: &log},
		recordingStage{name: "b", log: &log},
		recordingStage{name: "c", log: &log},
	)
	p.Run(&Context{})
	require.Equal(t, []string{"a", "b", "c"}, log)
}

func TestPipelineContinuesAfterDiagnostics(t *testing.T) {
	var log []string
	p := New(
		recordingStage{name: "a", log: &log, fn: func(ctx *Context) *Context {
			ctx.Diags = append(ctx.Diags, diagnostics.NewError(diagnostics.ErrTypeMismatch, token.Token{}, "boom"))
			return ctx
		}},
		recordingStage{name: "b", log: &log},
	)
	ctx := p.Run(&Context{})
	require.Equal(t, []string{"a", "b"}, log)
	require.True(t, ctx.Failed())
}

func TestPipelineStopsOnHardError(t *testing.T) {
	var log []string
	p := New(
		recordingStage{name: "a", log: &log, fn: func(ctx *Context) *Context {
			ctx.Err = errors.New("io failure")
			return ctx
		}},
		recordingStage{name: "b", log: &log},
	)
	ctx := p.Run(&Context{})
	require.Equal(t, []string{"a"}, log)
	require.True(t, ctx.Failed())
}

func TestFailedOnlyOnErrors(t *testing.T) {
	ctx := &Context{}
	require.False(t, ctx.Failed())
	ctx.Diags = append(ctx.Diags, diagnostics.NewWarning(diagnostics.WarnUnusedImport, token.Token{}, "w"))
	require.False(t, ctx.Failed())
}
