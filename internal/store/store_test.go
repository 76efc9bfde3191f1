package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/parser"
	"github.com/stretchr/testify/require"
)

func parseFile(t *testing.T, src string) *ast.File {
	t.Helper()
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)
	f.Source = src
	return f
}

func fixedClock(s *Store) {
	ts := int64(1700000000)
	s.Now = func() int64 { ts++; return ts }
}

const twoFnSrc = "module m\n" +
	"fn helper(x: Field) -> Field {\n  return x + 1\n}\n" +
	"pub fn top(x: Field) -> Field {\n  return helper(x)\n}\n"

func TestAddFileRegistersDefinitionsAndNames(t *testing.T) {
	s := New()
	fixedClock(s)
	s.AddFile(parseFile(t, twoFnSrc))

	def, h, ok := s.Lookup("top")
	require.True(t, ok)
	require.False(t, h.IsZero())
	require.True(t, def.IsPub)
	require.Equal(t, "m", def.Module)
	require.Contains(t, def.Source, "fn top")
	require.Equal(t, []string{"x: Field"}, def.Params)
	require.Equal(t, "Field", def.ReturnTy)

	_, helperHash, ok := s.Lookup("helper")
	require.True(t, ok)
	deps := s.Dependencies(h)
	require.Len(t, deps, 1)
	require.Equal(t, helperHash, deps[0])
}

func TestDependentsTraversal(t *testing.T) {
	s := New()
	fixedClock(s)
	s.AddFile(parseFile(t, twoFnSrc))

	_, helperHash, ok := s.Lookup("helper")
	require.True(t, ok)
	_, topHash, ok := s.Lookup("top")
	require.True(t, ok)

	deps := s.Dependencies(topHash)
	require.Len(t, deps, 1)
	require.Equal(t, helperHash, deps[0])

	dependents := s.Dependents(helperHash)
	require.Len(t, dependents, 1)
	require.Equal(t, topHash, dependents[0])
}

func TestDefinitionsAreAppendOnly(t *testing.T) {
	s := New()
	fixedClock(s)
	f := parseFile(t, twoFnSrc)
	s.AddFile(f)
	_, h1, _ := s.Lookup("top")
	first, _ := s.Get(h1)

	// Re-adding the identical file neither duplicates nor rewrites.
	s.AddFile(f)
	_, h2, _ := s.Lookup("top")
	require.Equal(t, h1, h2)
	second, _ := s.Get(h2)
	require.Same(t, first, second)
}

func TestEditRebindsNameKeepsOldDefinition(t *testing.T) {
	s := New()
	fixedClock(s)
	s.AddFile(parseFile(t, "module m\nfn f(x: Field) -> Field {\n  return x + 1\n}\n"))
	_, oldHash, _ := s.Lookup("f")

	s.AddFile(parseFile(t, "module m\nfn f(x: Field) -> Field {\n  return x + 2\n}\n"))
	_, newHash, _ := s.Lookup("f")
	require.NotEqual(t, oldHash, newHash)

	// The old content is still retrievable by hash.
	_, ok := s.Get(oldHash)
	require.True(t, ok)
}

func TestRenameAndAliasAreNameTableOnly(t *testing.T) {
	s := New()
	fixedClock(s)
	s.AddFile(parseFile(t, twoFnSrc))
	_, h, _ := s.Lookup("top")

	alias := "alias_" + uuid.NewString()[:8]
	require.NoError(t, s.Alias("top", alias))
	_, ah, ok := s.Lookup(alias)
	require.True(t, ok)
	require.Equal(t, h, ah)

	renamed := "renamed_" + uuid.NewString()[:8]
	require.NoError(t, s.Rename("top", renamed))
	_, _, ok = s.Lookup("top")
	require.False(t, ok)
	_, rh, ok := s.Lookup(renamed)
	require.True(t, ok)
	require.Equal(t, h, rh)

	// History accumulated all three bindings of this hash.
	require.GreaterOrEqual(t, len(s.History(h)), 3)
}

func TestRenameMissingOrTakenFails(t *testing.T) {
	s := New()
	fixedClock(s)
	s.AddFile(parseFile(t, twoFnSrc))
	require.Error(t, s.Rename("missing", "x"))
	require.Error(t, s.Rename("top", "helper"))
	require.Error(t, s.Alias("missing", "x"))
	require.Error(t, s.Alias("top", "helper"))
}

func TestSaveOpenRoundTrip(t *testing.T) {
	root := t.TempDir()

	s := New()
	fixedClock(s)
	s.AddFile(parseFile(t, twoFnSrc))
	_, wantHash, _ := s.Lookup("top")
	wantDef, _ := s.Get(wantHash)
	require.NoError(t, s.Save(root))

	opened, err := Open(root)
	require.NoError(t, err)
	gotDef, gotHash, ok := opened.Lookup("top")
	require.True(t, ok)
	require.Equal(t, wantHash, gotHash)
	require.Equal(t, wantDef, gotDef)
	require.Equal(t, s.Names(), opened.Names())
	require.Equal(t, s.History(wantHash), opened.History(wantHash))
}

func TestEncodeDecodeDefinitionIdentity(t *testing.T) {
	def := &Definition{
		Source:    "fn f() {\n  let x = 1\n}\n",
		Module:    "m",
		IsPub:     true,
		Params:    []string{"x: Field", "y: [Field; 3]"},
		ReturnTy:  "Field",
		Requires:  []string{"x == x"},
		Ensures:   []string{"result == x"},
		FirstSeen: 1700000001,
	}
	back, err := decodeDefinition(encodeDefinition(def))
	require.NoError(t, err)
	require.Equal(t, def, back)
}

func TestEscapeRoundTripsBackslashes(t *testing.T) {
	cases := []string{
		"plain",
		"line1\nline2",
		`back\slash`,
		`trailing\`,
		"mixed\\n\nliteral",
	}
	for _, c := range cases {
		require.Equal(t, c, unescape(escape(c)), "case %q", c)
	}
}
