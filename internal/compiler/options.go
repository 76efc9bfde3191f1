package compiler

import (
	"github.com/mastercyb/trident/internal/config"
	"github.com/mastercyb/trident/internal/target"
)

// CompileOptions is the caller-facing configuration of spec.md §6: extra
// dependency directories, active cfg flags, and the target description.
type CompileOptions struct {
	DepDirs  []string
	CfgFlags []string
	Target   target.TargetConfig
}

// DefaultOptions returns the documented defaults: no dep dirs, the
// "debug" flag set, the Triton target.
func DefaultOptions() CompileOptions {
	return CompileOptions{
		CfgFlags: append([]string(nil), config.DefaultCfgFlags...),
		Target:   target.Triton(),
	}
}
