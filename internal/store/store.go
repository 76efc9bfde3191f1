// Package store implements the content-addressed definition repository
// (spec.md §4.6): definitions keyed by content hash, append-only; a
// mutable name table; and a per-hash name history. The on-disk format
// (persist.go) is the collaborator key=value block of spec.md §6.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/config"
	"github.com/mastercyb/trident/internal/hash"
)

// Definition is one stored function: its source text and metadata,
// immutable once recorded under its hash.
type Definition struct {
	Source       string
	Module       string
	IsPub        bool
	Params       []string
	ReturnTy     string
	Dependencies []hash.ContentHash
	Requires     []string
	Ensures      []string
	FirstSeen    int64
}

// NameEntry records one historical binding of a name to a hash.
type NameEntry struct {
	Name      string
	Hash      hash.ContentHash
	Timestamp int64
}

// Store holds the in-memory repository. Definitions are append-only
// (never rewritten); only the name table mutates.
type Store struct {
	definitions map[hash.ContentHash]*Definition
	names       map[string]hash.ContentHash
	history     map[hash.ContentHash][]NameEntry

	// Now supplies timestamps; overridable in tests.
	Now func() int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		definitions: make(map[hash.ContentHash]*Definition),
		names:       make(map[string]hash.ContentHash),
		history:     make(map[hash.ContentHash][]NameEntry),
		Now:         func() int64 { return time.Now().Unix() },
	}
}

// DefaultRoot resolves the on-disk store root: the override environment
// variable, else $HOME/.trident/codebase.
func DefaultRoot() string {
	if v := os.Getenv(config.StoreRootEnvVar); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, config.DefaultStoreRootSuffix)
}

// AddFile hashes every function in the file, records a Definition for
// each hash not yet present, points the name table at the new hashes,
// and appends history entries (spec.md §4.6).
func (s *Store) AddFile(file *ast.File) {
	hashes := hash.HashFile(file)
	now := s.Now()

	for _, item := range file.Items {
		fn, ok := item.(*ast.Fn)
		if !ok || !fn.HasBody() {
			continue
		}
		h := hashes[fn.Name]

		if _, exists := s.definitions[h]; !exists {
			s.definitions[h] = &Definition{
				Source:       extractSource(file.Source, fn.SpanV.Start),
				Module:       file.Name,
				IsPub:        fn.IsPub,
				Params:       renderParams(fn),
				ReturnTy:     renderReturn(fn),
				Dependencies: hash.Dependencies(fn, hashes),
				Requires:     contractTexts(fn.Requires),
				Ensures:      contractTexts(fn.Ensures),
				FirstSeen:    now,
			}
		}

		if prev, bound := s.names[fn.Name]; !bound || prev != h {
			s.names[fn.Name] = h
			s.history[h] = append(s.history[h], NameEntry{Name: fn.Name, Hash: h, Timestamp: now})
		}
	}
}

// Lookup resolves a name through the name table.
func (s *Store) Lookup(name string) (*Definition, hash.ContentHash, bool) {
	h, ok := s.names[name]
	if !ok {
		return nil, hash.ContentHash{}, false
	}
	def, ok := s.definitions[h]
	return def, h, ok
}

// Get returns a definition by hash.
func (s *Store) Get(h hash.ContentHash) (*Definition, bool) {
	def, ok := s.definitions[h]
	return def, ok
}

// Rename rebinds old's hash under new and removes old. Content is
// untouched; this is a names-table-only operation.
func (s *Store) Rename(old, new string) error {
	h, ok := s.names[old]
	if !ok {
		return fmt.Errorf("rename: no definition named %q", old)
	}
	if _, taken := s.names[new]; taken {
		return fmt.Errorf("rename: %q is already bound", new)
	}
	delete(s.names, old)
	s.names[new] = h
	s.history[h] = append(s.history[h], NameEntry{Name: new, Hash: h, Timestamp: s.Now()})
	return nil
}

// Alias binds an additional name to an existing definition.
func (s *Store) Alias(existing, alias string) error {
	h, ok := s.names[existing]
	if !ok {
		return fmt.Errorf("alias: no definition named %q", existing)
	}
	if _, taken := s.names[alias]; taken {
		return fmt.Errorf("alias: %q is already bound", alias)
	}
	s.names[alias] = h
	s.history[h] = append(s.history[h], NameEntry{Name: alias, Hash: h, Timestamp: s.Now()})
	return nil
}

// Dependencies returns the direct dependency hashes of a definition.
func (s *Store) Dependencies(h hash.ContentHash) []hash.ContentHash {
	def, ok := s.definitions[h]
	if !ok {
		return nil
	}
	return def.Dependencies
}

// Dependents returns every stored hash whose definition depends on h.
func (s *Store) Dependents(h hash.ContentHash) []hash.ContentHash {
	var out []hash.ContentHash
	for dh, def := range s.definitions {
		for _, dep := range def.Dependencies {
			if dep == h {
				out = append(out, dh)
				break
			}
		}
	}
	return out
}

// History returns the name history of a hash, oldest first.
func (s *Store) History(h hash.ContentHash) []NameEntry {
	return s.history[h]
}

// Names returns a copy of the current name table.
func (s *Store) Names() map[string]hash.ContentHash {
	out := make(map[string]hash.ContentHash, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}

// extractSource slices one function's text out of the file source by
// scanning from its `fn` keyword to the matching closing brace.
func extractSource(src string, start int) string {
	if start < 0 || start >= len(src) {
		return ""
	}
	depth := 0
	opened := false
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
			opened = true
		case '}':
			depth--
			if opened && depth == 0 {
				return src[start : i+1]
			}
		case '\n':
			// A bodyless intrinsic declaration ends at the first newline
			// after its signature once no brace has opened.
			if !opened && i > start && containsParen(src[start:i]) {
				return src[start:i]
			}
		}
	}
	return src[start:]
}

func containsParen(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == ')' {
			return true
		}
	}
	return false
}

func renderParams(fn *ast.Fn) []string {
	out := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		out[i] = p.Name + ": " + typeString(p.Ty)
	}
	return out
}

func renderReturn(fn *ast.Fn) string {
	if fn.ReturnTy == nil {
		return ""
	}
	return typeString(fn.ReturnTy)
}

func typeString(t ast.Type) string {
	switch v := t.(type) {
	case *ast.FieldType:
		return "Field"
	case *ast.XFieldType:
		return "XField"
	case *ast.BoolType:
		return "Bool"
	case *ast.U32Type:
		return "U32"
	case *ast.DigestType:
		return "Digest"
	case *ast.ArrayType:
		if v.Size.IsParam {
			return fmt.Sprintf("[%s; %s]", typeString(v.Elem), v.Size.Param)
		}
		return fmt.Sprintf("[%s; %d]", typeString(v.Elem), v.Size.Lit)
	case *ast.TupleType:
		s := "("
		for i, e := range v.Elems {
			if i > 0 {
				s += ", "
			}
			s += typeString(e)
		}
		return s + ")"
	case *ast.NamedType:
		return v.Name()
	default:
		return "()"
	}
}

func contractTexts(cs []ast.Contract) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Raw
	}
	return out
}
