package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mastercyb/trident/internal/hash"
)

// Save writes the store under root: defs/XX/<64-hex>.def per definition
// (XX = first two hex characters), names.txt sorted alphabetically, and
// history.txt ordered by timestamp (spec.md §5, §6).
func (s *Store) Save(root string) error {
	for h, def := range s.definitions {
		hex := h.Hex()
		dir := filepath.Join(root, "defs", hex[:2])
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		path := filepath.Join(dir, hex+".def")
		if _, err := os.Stat(path); err == nil {
			continue // definitions are immutable; never rewrite
		}
		if err := os.WriteFile(path, []byte(encodeDefinition(def)), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	sort.Strings(names)
	var nb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&nb, "%s=%s\n", name, s.names[name].Hex())
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(root, "names.txt"), []byte(nb.String()), 0o644); err != nil {
		return err
	}

	var entries []NameEntry
	for _, hist := range s.history {
		entries = append(entries, hist...)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp < entries[j].Timestamp })
	var hb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&hb, "%s %s %d\n", e.Name, e.Hash.Hex(), e.Timestamp)
	}
	return os.WriteFile(filepath.Join(root, "history.txt"), []byte(hb.String()), 0o644)
}

// Open reads a store previously written by Save.
func Open(root string) (*Store, error) {
	s := New()

	defsDir := filepath.Join(root, "defs")
	buckets, err := os.ReadDir(defsDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", defsDir, err)
	}
	for _, bucket := range buckets {
		if !bucket.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(defsDir, bucket.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !strings.HasSuffix(f.Name(), ".def") {
				continue
			}
			hexName := strings.TrimSuffix(f.Name(), ".def")
			h, ok := hash.FromHex(hexName)
			if !ok {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(defsDir, bucket.Name(), f.Name()))
			if err != nil {
				return nil, err
			}
			def, err := decodeDefinition(string(raw))
			if err != nil {
				return nil, fmt.Errorf("decoding %s: %w", f.Name(), err)
			}
			s.definitions[h] = def
		}
	}

	if raw, err := os.ReadFile(filepath.Join(root, "names.txt")); err == nil {
		for _, line := range strings.Split(string(raw), "\n") {
			if line == "" {
				continue
			}
			name, hex, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			if h, valid := hash.FromHex(hex); valid {
				s.names[name] = h
			}
		}
	}

	if raw, err := os.ReadFile(filepath.Join(root, "history.txt")); err == nil {
		for _, line := range strings.Split(string(raw), "\n") {
			parts := strings.Fields(line)
			if len(parts) != 3 {
				continue
			}
			h, valid := hash.FromHex(parts[1])
			if !valid {
				continue
			}
			ts, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				continue
			}
			s.history[h] = append(s.history[h], NameEntry{Name: parts[0], Hash: h, Timestamp: ts})
		}
	}

	return s, nil
}

// escape doubles backslashes and folds newlines so a multi-line source
// body fits one key=value line.
func escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, "\n", `\n`)
}

func unescape(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' || i+1 >= len(v) {
			b.WriteByte(v[i])
			continue
		}
		i++
		switch v[i] {
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(v[i])
		}
	}
	return b.String()
}

// encodeDefinition renders the key=value block of spec.md §6.
func encodeDefinition(def *Definition) string {
	var b strings.Builder
	write := func(key, val string) {
		fmt.Fprintf(&b, "%s=%s\n", key, escape(val))
	}
	write("source", def.Source)
	write("module", def.Module)
	write("pub", strconv.FormatBool(def.IsPub))
	write("params", strings.Join(def.Params, "|"))
	write("return", def.ReturnTy)
	deps := make([]string, len(def.Dependencies))
	for i, d := range def.Dependencies {
		deps[i] = d.Hex()
	}
	write("deps", strings.Join(deps, ","))
	write("requires", strings.Join(def.Requires, "; "))
	write("ensures", strings.Join(def.Ensures, "; "))
	write("first_seen", strconv.FormatInt(def.FirstSeen, 10))
	return b.String()
}

// decodeDefinition parses encodeDefinition's output. The pair round-trips
// every Definition AddFile builds; an empty Params, Requires or Ensures
// list decodes as an empty non-nil slice and an empty Dependencies list
// as nil.
func decodeDefinition(raw string) (*Definition, error) {
	def := &Definition{}
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed line %q", line)
		}
		val = unescape(val)
		switch key {
		case "source":
			def.Source = val
		case "module":
			def.Module = val
		case "pub":
			def.IsPub = val == "true"
		case "params":
			def.Params = splitList(val, "|")
		case "return":
			def.ReturnTy = val
		case "deps":
			for _, hex := range splitList(val, ",") {
				if h, valid := hash.FromHex(hex); valid {
					def.Dependencies = append(def.Dependencies, h)
				}
			}
		case "requires":
			def.Requires = splitList(val, "; ")
		case "ensures":
			def.Ensures = splitList(val, "; ")
		case "first_seen":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("bad first_seen %q", val)
			}
			def.FirstSeen = ts
		}
	}
	return def, nil
}

func splitList(v, sep string) []string {
	if v == "" {
		return []string{}
	}
	return strings.Split(v, sep)
}
