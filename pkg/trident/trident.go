// Package trident is the public embedding API over the compiler library,
// for hosts that drive compiles programmatically rather than through the
// tridentc binary. It re-exports the spec-level operations with stable
// names; everything under internal/ remains free to move.
package trident

import (
	"github.com/mastercyb/trident/internal/compiler"
	"github.com/mastercyb/trident/internal/cost"
	"github.com/mastercyb/trident/internal/hash"
	"github.com/mastercyb/trident/internal/target"
)

// Options mirrors compiler.CompileOptions.
type Options = compiler.CompileOptions

// ProgramCost is the cost analyzer's result.
type ProgramCost = cost.ProgramCost

// ContentHash is a function's 32-byte content identity.
type ContentHash = hash.ContentHash

// TargetConfig describes a stack-VM target.
type TargetConfig = target.TargetConfig

// DefaultOptions returns the documented defaults (Triton, debug flag).
func DefaultOptions() Options { return compiler.DefaultOptions() }

// Triton is the default target configuration.
func Triton() TargetConfig { return target.Triton() }

// Compile compiles the project rooted at entry into target assembly.
func Compile(entry string, opts Options) (string, error) {
	return compiler.CompileProject(entry, opts)
}

// Check type-checks the project without emitting.
func Check(entry string, opts Options) error {
	return compiler.CheckProject(entry, opts)
}

// AnalyzeCosts computes the program's worst-case table costs.
func AnalyzeCosts(entry string, opts Options) (ProgramCost, error) {
	return compiler.AnalyzeCosts(entry, opts)
}

// HashFile computes per-function content hashes of the entry file.
func HashFile(entry string, opts Options) (map[string]ContentHash, error) {
	return compiler.HashEntry(entry, opts)
}

// GenerateDocs renders a markdown summary of the entry file's public
// surface.
func GenerateDocs(entry string, opts Options) (string, error) {
	return compiler.GenerateDocs(entry, opts)
}
