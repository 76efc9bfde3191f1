package target

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTritonDefaults(t *testing.T) {
	tc := Triton()
	require.Equal(t, "triton", tc.Name)
	require.Equal(t, 16, tc.StackDepth)
	require.Equal(t, 5, tc.DigestWidth)
	require.Equal(t, 10, tc.HashRate)
	require.Equal(t, 2, tc.FieldLimbs)
	require.Equal(t, 3, tc.XFieldWidth)
	require.NoError(t, tc.Validate())
}

func TestParseYAMLOverridesOnlyNamedFields(t *testing.T) {
	tc, err := ParseYAML([]byte("name: toy\nstack_depth: 8\n"))
	require.NoError(t, err)
	require.Equal(t, "toy", tc.Name)
	require.Equal(t, 8, tc.StackDepth)
	// Unnamed fields keep the Triton defaults.
	require.Equal(t, 5, tc.DigestWidth)
	require.Equal(t, 10, tc.HashRate)
}

func TestParseYAMLRejectsInvalidConfig(t *testing.T) {
	_, err := ParseYAML([]byte("name: bad\nstack_depth: 1\n"))
	require.Error(t, err)
}

func TestMarshalTextRoundTrips(t *testing.T) {
	tc := Triton()
	raw, err := tc.MarshalText()
	require.NoError(t, err)
	back, err := ParseYAML(raw)
	require.NoError(t, err)
	require.Equal(t, tc, back)
}
