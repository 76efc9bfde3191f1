package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mastercyb/trident/internal/config"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/lexer"
	"github.com/mastercyb/trident/internal/token"
)

// ModuleInfo is one resolved module: its declared dotted name, the file it
// was loaded from, its raw source, and the dotted names it depends on.
type ModuleInfo struct {
	Name         string
	FilePath     string
	Source       string
	Dependencies []string
}

// Resolver walks the module graph reachable from an entry file.
type Resolver struct {
	StdlibRoot string
	DepDirs    []string
}

// NewResolver builds a Resolver with the stdlib root computed per the
// resolution order in spec.md §4.1: the TRIDENT_STDLIB environment
// variable, then a `stdlib` directory next to the running binary, then
// `./stdlib` relative to the working directory.
func NewResolver(depDirs []string) *Resolver {
	return &Resolver{StdlibRoot: DefaultStdlibRoot(), DepDirs: depDirs}
}

// DefaultStdlibRoot implements the three-step resolution order.
func DefaultStdlibRoot() string {
	if v := os.Getenv(config.StdlibRootEnvVar); v != "" {
		return v
	}
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), config.DefaultStdlibDirName)
		if dirExists(sibling) {
			return sibling
		}
	}
	return filepath.Join(".", config.DefaultStdlibDirName)
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

type moduleNode struct {
	info     ModuleInfo
	depPaths []string
	kind     FileKindOrNone
}

// Resolve performs a breadth-first discovery walk from entryPath, then a
// depth-first topological sort over the discovered graph so the returned
// slice lists dependencies before dependents. A back-edge found during the
// sort is reported as ErrCircularImport with the full cycle path; an
// unresolvable `use` clause is reported as ErrModuleNotFound.
func (r *Resolver) Resolve(entryPath string) ([]ModuleInfo, error) {
	absEntry, err := filepath.Abs(entryPath)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*moduleNode)
	queue := []string{absEntry}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if _, ok := nodes[path]; ok {
			continue
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		source := string(raw)
		toks := lexer.Tokenize(source)
		h := scanHeader(toks)

		dir := filepath.Dir(path)
		var depNames []string
		var depPaths []string
		for _, u := range h.Uses {
			name := joinDotted(u.Segments)
			depPath, rerr := r.resolveModulePath(u.Segments, dir)
			if rerr != nil {
				d := diagnostics.NewError(diagnostics.ErrModuleNotFound, u.Tok,
					fmt.Sprintf("cannot find module %q", name))
				d.File = path
				return nil, d
			}
			depNames = append(depNames, name)
			depPaths = append(depPaths, depPath)
			queue = append(queue, depPath)
		}

		name := h.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), config.SourceFileExt)
		}

		nodes[path] = &moduleNode{
			info: ModuleInfo{
				Name:         name,
				FilePath:     path,
				Source:       source,
				Dependencies: depNames,
			},
			depPaths: depPaths,
			kind:     h.Kind,
		}
	}

	return topoSort(nodes, absEntry)
}

// resolveModulePath converts a dotted module name's segments into a file
// path. `std.*` always resolves under the stdlib root with the leading
// "std" segment stripped; every other name is searched for, in order,
// relative to the importing file's directory and then each configured
// dependency directory. Path traversal via ".." or path separators inside
// a single segment is rejected.
func (r *Resolver) resolveModulePath(segs []string, fromDir string) (string, error) {
	for _, s := range segs {
		if s == "" || s == ".." || strings.ContainsAny(s, "/\\") {
			return "", fmt.Errorf("invalid module name segment %q", s)
		}
	}

	if segs[0] == "std" {
		rest := segs[1:]
		if len(rest) == 0 {
			return "", fmt.Errorf("invalid module name \"std\"")
		}
		return r.buildPath(r.StdlibRoot, rest), nil
	}

	roots := append([]string{fromDir}, r.DepDirs...)
	for _, root := range roots {
		p := r.buildPath(root, segs)
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("module not found in any root")
}

func (r *Resolver) buildPath(root string, segs []string) string {
	if len(segs) == 1 {
		return filepath.Join(root, segs[0]+config.SourceFileExt)
	}
	dir := filepath.Join(segs[:len(segs)-1]...)
	return filepath.Join(root, dir, segs[len(segs)-1]+config.SourceFileExt)
}

// topoSort runs an iterative-recursive DFS postorder over the discovered
// graph starting at entry, collecting each node after its dependencies.
func topoSort(nodes map[string]*moduleNode, entry string) ([]ModuleInfo, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(nodes))
	var stack []string
	var order []ModuleInfo

	var visit func(path string) error
	visit = func(path string) error {
		switch state[path] {
		case done:
			return nil
		case visiting:
			return cycleError(nodes, stack, path)
		}
		state[path] = visiting
		stack = append(stack, path)

		n := nodes[path]
		for _, dep := range n.depPaths {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[path] = done
		order = append(order, n.info)
		return nil
	}

	if err := visit(entry); err != nil {
		return nil, err
	}
	return order, nil
}

func cycleError(nodes map[string]*moduleNode, stack []string, repeated string) error {
	start := 0
	for idx, p := range stack {
		if p == repeated {
			start = idx
			break
		}
	}
	cyclePaths := append(append([]string{}, stack[start:]...), repeated)
	names := make([]string, len(cyclePaths))
	for i, p := range cyclePaths {
		names[i] = nodes[p].info.Name
	}
	msg := "circular dependency detected: " + strings.Join(names, " -> ")
	d := diagnostics.NewError(diagnostics.ErrCircularImport, token.Token{}, msg)
	d.File = nodes[repeated].info.FilePath
	return d
}
