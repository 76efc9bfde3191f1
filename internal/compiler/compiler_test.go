package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestCompileTrivialProgram(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"p.tri": "program p\nfn main() {\n  pub_write(pub_read())\n}\n",
	})
	asm, err := CompileProject(filepath.Join(dir, "p.tri"), DefaultOptions())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(asm, "call main\nhalt\n"))
	require.Contains(t, asm, "main:")
	require.Contains(t, asm, "read_io 1")
	require.Contains(t, asm, "write_io 1")
}

func TestCompileMultiModuleProject(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"p.tri":    "program p\nuse util\nfn main() {\n  let x = util.double(3)\n  pub_write(x)\n}\n",
		"util.tri": "module util\npub fn double(x: Field) -> Field {\n  return x + x\n}\n",
	})
	asm, err := CompileProject(filepath.Join(dir, "p.tri"), DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, asm, "double:")
	require.Contains(t, asm, "call double")
	// Entry dispatch leads the program text.
	require.True(t, strings.HasPrefix(asm, "call main\nhalt\n"))
}

func TestCompileRejectsRecursion(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"p.tri": "program p\nfn a() {\n  b()\n}\nfn b() {\n  a()\n}\nfn main() {\n  a()\n}\n",
	})
	_, err := CompileProject(filepath.Join(dir, "p.tri"), DefaultOptions())
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	found := false
	for _, d := range be.Diags {
		if d.Code == diagnostics.ErrRecursionCycle {
			found = true
		}
	}
	require.True(t, found)
}

func TestCompileRejectsCircularImports(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a.tri": "module a\nuse b\npub fn fa() -> Field {\n  return 1\n}\n",
		"b.tri": "module b\nuse a\npub fn fb() -> Field {\n  return 2\n}\n",
	})
	err := CheckProject(filepath.Join(dir, "a.tri"), DefaultOptions())
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	require.Equal(t, diagnostics.ErrCircularImport, be.Diags[0].Code)
}

func TestCheckProjectCleanModule(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"m.tri": "module m\npub fn id(x: Field) -> Field {\n  return x\n}\n",
	})
	require.NoError(t, CheckProject(filepath.Join(dir, "m.tri"), DefaultOptions()))
}

func TestMissingModuleReported(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"p.tri": "program p\nuse nowhere\nfn main() {\n}\n",
	})
	err := CheckProject(filepath.Join(dir, "p.tri"), DefaultOptions())
	require.Error(t, err)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	require.Equal(t, diagnostics.ErrModuleNotFound, be.Diags[0].Code)
	require.Contains(t, be.Diags[0].Message, "cannot find module")
}

func TestAnalyzeCostsTrivialProgram(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"p.tri": "program p\nfn main() {\n  pub_write(pub_read())\n}\n",
	})
	pc, err := AnalyzeCosts(filepath.Join(dir, "p.tri"), DefaultOptions())
	require.NoError(t, err)
	require.GreaterOrEqual(t, pc.Total[0], uint64(3)) // processor
	require.Equal(t, "proc", pc.DominantTable())
	// Padded height is a power of two.
	require.NotZero(t, pc.PaddedHeight)
	require.Zero(t, pc.PaddedHeight&(pc.PaddedHeight-1))
}

func TestHashEntryProducesPerFunctionHashes(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"p.tri": "program p\nfn id(x: Field) -> Field {\n  return x\n}\nfn main() {\n}\n",
	})
	hashes, err := HashEntry(filepath.Join(dir, "p.tri"), DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, hashes, "id")
	require.Contains(t, hashes, "main")
	require.False(t, hashes["id"].IsZero())
}

func TestGenerateDocsListsPublicFunctions(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"m.tri": "module m\n#[requires(x == x)]\npub fn id(x: Field) -> Field {\n  return x\n}\nfn private_helper() -> Field {\n  return 1\n}\n",
	})
	md, err := GenerateDocs(filepath.Join(dir, "m.tri"), DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, md, "# m")
	require.Contains(t, md, "## id")
	require.Contains(t, md, "requires")
	require.NotContains(t, md, "private_helper")
}

func TestDepDirsResolveModules(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"app/p.tri":   "program p\nuse shared\nfn main() {\n  pub_write(shared.one())\n}\n",
		"lib/shared.tri": "module shared\npub fn one() -> Field {\n  return 1\n}\n",
	})
	opts := DefaultOptions()
	opts.DepDirs = []string{filepath.Join(dir, "lib")}
	asm, err := CompileProject(filepath.Join(dir, "app", "p.tri"), opts)
	require.NoError(t, err)
	require.Contains(t, asm, "one:")
}

func TestWarningsSurfaceUnusedImport(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"m.tri":    "module m\nuse util\npub fn f() -> Field {\n  return 1\n}\n",
		"util.tri": "module util\npub fn g() -> Field {\n  return 2\n}\n",
	})
	warns, err := Warnings(filepath.Join(dir, "m.tri"), DefaultOptions())
	require.NoError(t, err)
	found := false
	for _, w := range warns {
		if w.Code == diagnostics.WarnUnusedImport {
			found = true
		}
	}
	require.True(t, found)
}
