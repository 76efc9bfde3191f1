package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestResolveSingleFile(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"p.tri": "program p\nfn main() {\n}\n",
	})
	r := NewResolver(nil)
	mods, err := r.Resolve(filepath.Join(dir, "p.tri"))
	require.NoError(t, err)
	require.Len(t, mods, 1)
	require.Equal(t, "p", mods[0].Name)
	require.Empty(t, mods[0].Dependencies)
}

func TestResolveTopologicalOrder(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"p.tri": "program p\nuse a\nuse b\nfn main() {\n}\n",
		"a.tri": "module a\nuse c\n",
		"b.tri": "module b\nuse c\n",
		"c.tri": "module c\n",
	})
	r := NewResolver(nil)
	mods, err := r.Resolve(filepath.Join(dir, "p.tri"))
	require.NoError(t, err)
	require.Len(t, mods, 4)

	pos := make(map[string]int, len(mods))
	for i, m := range mods {
		pos[m.Name] = i
	}
	// Dependencies precede dependents.
	require.Less(t, pos["c"], pos["a"])
	require.Less(t, pos["c"], pos["b"])
	require.Less(t, pos["a"], pos["p"])
	require.Less(t, pos["b"], pos["p"])
	require.Equal(t, 3, pos["p"])
}

func TestResolveNestedDottedName(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"p.tri":             "program p\nuse crypto.sponge\nfn main() {\n}\n",
		"crypto/sponge.tri": "module crypto.sponge\n",
	})
	r := NewResolver(nil)
	mods, err := r.Resolve(filepath.Join(dir, "p.tri"))
	require.NoError(t, err)
	require.Len(t, mods, 2)
	require.Equal(t, "crypto.sponge", mods[0].Name)
}

func TestResolveStdlibRoot(t *testing.T) {
	stdlib := writeTree(t, map[string]string{
		"hash.tri": "module std.hash\n",
	})
	dir := writeTree(t, map[string]string{
		"p.tri": "program p\nuse std.hash\nfn main() {\n}\n",
	})
	r := &Resolver{StdlibRoot: stdlib}
	mods, err := r.Resolve(filepath.Join(dir, "p.tri"))
	require.NoError(t, err)
	require.Len(t, mods, 2)
	require.Equal(t, "std.hash", mods[0].Name)
}

func TestResolveStdlibEnvOverride(t *testing.T) {
	stdlib := writeTree(t, map[string]string{"hash.tri": "module std.hash\n"})
	t.Setenv("TRIDENT_STDLIB", stdlib)
	require.Equal(t, stdlib, DefaultStdlibRoot())
}

func TestResolveDepDirs(t *testing.T) {
	lib := writeTree(t, map[string]string{
		"shared.tri": "module shared\n",
	})
	dir := writeTree(t, map[string]string{
		"p.tri": "program p\nuse shared\nfn main() {\n}\n",
	})
	r := NewResolver([]string{lib})
	mods, err := r.Resolve(filepath.Join(dir, "p.tri"))
	require.NoError(t, err)
	require.Len(t, mods, 2)
}

func TestResolveMissingModule(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"p.tri": "program p\nuse nowhere\nfn main() {\n}\n",
	})
	r := NewResolver(nil)
	_, err := r.Resolve(filepath.Join(dir, "p.tri"))
	require.Error(t, err)
	d, ok := err.(*diagnostics.DiagnosticError)
	require.True(t, ok)
	require.Equal(t, diagnostics.ErrModuleNotFound, d.Code)
	require.Contains(t, d.Message, `cannot find module "nowhere"`)
}

func TestResolveCircularImport(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.tri": "module a\nuse b\n",
		"b.tri": "module b\nuse a\n",
	})
	r := NewResolver(nil)
	_, err := r.Resolve(filepath.Join(dir, "a.tri"))
	require.Error(t, err)
	d, ok := err.(*diagnostics.DiagnosticError)
	require.True(t, ok)
	require.Equal(t, diagnostics.ErrCircularImport, d.Code)
	require.Contains(t, d.Message, "circular dependency detected")
	require.Contains(t, d.Message, "a -> b -> a")
}

func TestPathTraversalRejected(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"p.tri": "program p\nuse secret\nfn main() {\n}\n",
	})
	// A module whose resolution would need traversal segments simply does
	// not resolve; the rejection surfaces as module-not-found.
	r := NewResolver(nil)
	_, err := r.resolveModulePath([]string{".."}, dir)
	require.Error(t, err)
	_, err = r.resolveModulePath([]string{"a/b"}, dir)
	require.Error(t, err)
	_, err = r.resolveModulePath([]string{`a\b`}, dir)
	require.Error(t, err)
}

func TestHeaderScanStopsAtFirstItem(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"p.tri": "program p\nuse a\nfn main() {\n  let x = 1\n}\n// use b should not count\n",
		"a.tri": "module a\n",
	})
	r := NewResolver(nil)
	mods, err := r.Resolve(filepath.Join(dir, "p.tri"))
	require.NoError(t, err)
	require.Len(t, mods, 2)
}
