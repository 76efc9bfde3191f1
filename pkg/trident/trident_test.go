package trident

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeEntry(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "p.tri")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestCompileThroughPublicAPI(t *testing.T) {
	entry := writeEntry(t, "program p\nfn main() {\n  pub_write(pub_read())\n}\n")
	asm, err := Compile(entry, DefaultOptions())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(asm, "call main"))
}

func TestCheckAndCostThroughPublicAPI(t *testing.T) {
	entry := writeEntry(t, "program p\nfn main() {\n  let x = 1\n}\n")
	require.NoError(t, Check(entry, DefaultOptions()))

	pc, err := AnalyzeCosts(entry, DefaultOptions())
	require.NoError(t, err)
	require.NotZero(t, pc.PaddedHeight)
}

func TestHashThroughPublicAPI(t *testing.T) {
	entry := writeEntry(t, "program p\nfn main() {\n}\n")
	hashes, err := HashFile(entry, DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, hashes, "main")
}
