// Package target carries the target-VM configuration threaded from
// CompileOptions through the checker, cost model, and TIR builder (spec.md
// §6). A TargetConfig is plain data; every width- or depth-dependent
// decision in the compiler reads from it rather than from package-level
// constants, so a second target is a second value, not a second build.
package target

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TargetConfig describes one stack-machine target.
type TargetConfig struct {
	// Name identifies the target, e.g. "triton".
	Name string `yaml:"name"`

	// StackDepth is the number of top-of-stack cells addressable by the
	// target's dup/swap instructions (the "stack window").
	StackDepth int `yaml:"stack_depth"`

	// SpillRAMBase is the first RAM address of the contiguous spill region
	// the stack manager writes overflowing variables to.
	SpillRAMBase uint64 `yaml:"spill_ram_base"`

	// DigestWidth is the hash primitive's output width in field elements.
	DigestWidth int `yaml:"digest_width"`

	// HashRate is how many field elements one hash invocation absorbs.
	HashRate int `yaml:"hash_rate"`

	// FieldLimbs is how many u32 limbs `split` decomposes a field element
	// into.
	FieldLimbs int `yaml:"field_limbs"`

	// XFieldWidth is the extension field's width in base-field elements.
	XFieldWidth int `yaml:"xfield_width"`
}

// Triton is the default target: the Triton VM's 16-cell window, width-5
// Tip5 digests, rate-10 absorb, two u32 limbs per field element, and a
// cubic extension field.
func Triton() TargetConfig {
	return TargetConfig{
		Name:         "triton",
		StackDepth:   16,
		SpillRAMBase: 1 << 20,
		DigestWidth:  5,
		HashRate:     10,
		FieldLimbs:   2,
		XFieldWidth:  3,
	}
}

// Validate rejects configurations no backend could emit for.
func (tc TargetConfig) Validate() error {
	if tc.Name == "" {
		return fmt.Errorf("target config: name is required")
	}
	if tc.StackDepth < 2 {
		return fmt.Errorf("target config %q: stack_depth %d is below the minimum of 2", tc.Name, tc.StackDepth)
	}
	if tc.DigestWidth < 1 || tc.HashRate < 1 || tc.FieldLimbs < 1 || tc.XFieldWidth < 1 {
		return fmt.Errorf("target config %q: widths must all be at least 1", tc.Name)
	}
	return nil
}

// LoadYAML reads a target description from a YAML file, filling unset
// fields from the Triton defaults so a description file only needs to name
// what it changes.
func LoadYAML(path string) (TargetConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TargetConfig{}, fmt.Errorf("reading target config %s: %w", path, err)
	}
	return ParseYAML(raw)
}

// ParseYAML decodes a YAML target description over the Triton defaults.
func ParseYAML(raw []byte) (TargetConfig, error) {
	tc := Triton()
	if err := yaml.Unmarshal(raw, &tc); err != nil {
		return TargetConfig{}, fmt.Errorf("parsing target config: %w", err)
	}
	if err := tc.Validate(); err != nil {
		return TargetConfig{}, err
	}
	return tc, nil
}

// MarshalText renders the configuration as YAML, the inverse of ParseYAML.
func (tc TargetConfig) MarshalText() ([]byte, error) {
	// plain has the same fields and tags but no MarshalText, so yaml does
	// not call back into this method.
	type plain TargetConfig
	return yaml.Marshal(plain(tc))
}
