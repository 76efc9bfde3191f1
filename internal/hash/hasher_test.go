package hash

import (
	"testing"

	"github.com/mastercyb/trident/internal/parser"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) map[string]ContentHash {
	t.Helper()
	f, errs := parser.Parse(src, "test.tri")
	require.Empty(t, errs)
	return HashFile(f)
}

func TestHashUnchangedByParameterRename(t *testing.T) {
	a := mustParse(t, "program p\nfn id(x: Field) -> Field {\n  return x\n}\nfn main() {\n}\n")
	b := mustParse(t, "program p\nfn id(y: Field) -> Field {\n  return y\n}\nfn main() {\n}\n")
	require.Equal(t, a["id"], b["id"])
}

func TestHashUnchangedByLocalRename(t *testing.T) {
	a := mustParse(t, "module m\nfn f(x: Field) -> Field {\n  let tmp = x + 1\n  return tmp\n}\n")
	b := mustParse(t, "module m\nfn f(x: Field) -> Field {\n  let aux = x + 1\n  return aux\n}\n")
	require.Equal(t, a["f"], b["f"])
}

func TestHashUnchangedByWhitespaceAndComments(t *testing.T) {
	a := mustParse(t, "module m\nfn f(x: Field) -> Field {\n  return x + 1\n}\n")
	b := mustParse(t, "module m\n\n\n// doubled\nfn f(x: Field) -> Field {\n\n  return x + 1\n\n}\n")
	require.Equal(t, a["f"], b["f"])
}

func TestHashChangesWithBody(t *testing.T) {
	a := mustParse(t, "module m\nfn f(x: Field) -> Field {\n  return x + 1\n}\n")
	b := mustParse(t, "module m\nfn f(x: Field) -> Field {\n  return x + 2\n}\n")
	require.NotEqual(t, a["f"], b["f"])
}

func TestCalleeBodyChangePropagatesToCaller(t *testing.T) {
	a := mustParse(t, "module m\nfn g(x: Field) -> Field {\n  return x + 1\n}\nfn f(x: Field) -> Field {\n  return g(x)\n}\n")
	b := mustParse(t, "module m\nfn g(x: Field) -> Field {\n  return x + 2\n}\nfn f(x: Field) -> Field {\n  return g(x)\n}\n")
	require.NotEqual(t, a["g"], b["g"])
	require.NotEqual(t, a["f"], b["f"])
}

func TestCallerUnchangedWhenCalleeUnchanged(t *testing.T) {
	a := mustParse(t, "module m\nfn g(x: Field) -> Field {\n  return x\n}\nfn f(y: Field) -> Field {\n  return g(y)\n}\n")
	b := mustParse(t, "module m\nfn g(z: Field) -> Field {\n  return z\n}\nfn f(w: Field) -> Field {\n  return g(w)\n}\n")
	require.Equal(t, a["f"], b["f"])
}

func TestRequiresEnsuresDoNotAffectHash(t *testing.T) {
	a := mustParse(t, "module m\nfn f(x: Field) -> Field {\n  return x\n}\n")
	b := mustParse(t, "module m\n#[requires(x == x)]\n#[ensures(result == x)]\nfn f(x: Field) -> Field {\n  return x\n}\n")
	require.Equal(t, a["f"], b["f"])
}

func TestConstantRefDistinctFromFreeVar(t *testing.T) {
	// With the constant declared, the reference serializes under the
	// constant tag; without it, under the free-variable fallback.
	a := mustParse(t, "module m\nconst LIMIT: Field = 7\nfn f() -> Field {\n  return LIMIT\n}\n")
	b := mustParse(t, "module m\nfn f() -> Field {\n  return LIMIT\n}\n")
	require.NotEqual(t, a["f"], b["f"])
}

func TestStructInitFieldOrderIrrelevant(t *testing.T) {
	a := mustParse(t, "module m\nstruct P { x: Field, y: Field }\nfn f() -> P {\n  return P { x: 1, y: 2 }\n}\n")
	b := mustParse(t, "module m\nstruct P { x: Field, y: Field }\nfn f() -> P {\n  return P { y: 2, x: 1 }\n}\n")
	require.Equal(t, a["f"], b["f"])
}

func TestHashFileContentStableAcrossFunctionOrder(t *testing.T) {
	fa, errs := parser.Parse("module m\nfn a() -> Field {\n  return 1\n}\nfn b() -> Field {\n  return 2\n}\n", "m.tri")
	require.Empty(t, errs)
	fb, errs := parser.Parse("module m\nfn b() -> Field {\n  return 2\n}\nfn a() -> Field {\n  return 1\n}\n", "m.tri")
	require.Empty(t, errs)
	require.Equal(t, HashFileContent(fa), HashFileContent(fb))
}

func TestContentHashHexRoundTrip(t *testing.T) {
	hashes := mustParse(t, "module m\nfn f() -> Field {\n  return 1\n}\n")
	h := hashes["f"]
	back, ok := FromHex(h.Hex())
	require.True(t, ok)
	require.Equal(t, h, back)
}

func TestContentHashShortIsTenChars(t *testing.T) {
	hashes := mustParse(t, "module m\nfn f() -> Field {\n  return 1\n}\n")
	require.Len(t, hashes["f"].Short(), 10)
}

func TestFromHexRejectsMalformed(t *testing.T) {
	_, ok := FromHex("zz")
	require.False(t, ok)
	_, ok = FromHex("abcd")
	require.False(t, ok)
}
