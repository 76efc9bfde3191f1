// Command tridentc is the thin CLI collaborator over the compiler
// library: build, check, cost, hash, and docs subcommands with the exit
// code contract of spec.md §6 (0 success, 1 diagnostics, 2 usage, 3 I/O).
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/mastercyb/trident/internal/compiler"
	"github.com/mastercyb/trident/internal/config"
	"github.com/mastercyb/trident/internal/cost"
	"github.com/mastercyb/trident/internal/diagnostics"
	"github.com/mastercyb/trident/internal/target"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func usage() {
	fmt.Fprintf(os.Stderr, `tridentc %s

usage:
  tridentc build <entry.tri> [-d dir]... [-t target.yaml]
  tridentc check <entry.tri> [-d dir]...
  tridentc cost  <entry.tri> [-d dir]...
  tridentc hash  <entry.tri>
  tridentc docs  <entry.tri>
`, config.Version)
}

func run(args []string) int {
	if len(args) < 2 {
		usage()
		return 2
	}
	cmd, entry := args[0], args[1]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	var depDirs stringList
	fs.Var(&depDirs, "d", "additional dependency directory (repeatable)")
	targetFile := fs.String("t", "", "target description YAML")
	if err := fs.Parse(args[2:]); err != nil {
		usage()
		return 2
	}

	opts := compiler.DefaultOptions()
	opts.DepDirs = depDirs
	if *targetFile != "" {
		tc, err := target.LoadYAML(*targetFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 3
		}
		opts.Target = tc
	}

	switch cmd {
	case "build":
		asm, err := compiler.CompileProject(entry, opts)
		if code := report(err); code != 0 {
			return code
		}
		fmt.Print(asm)
	case "check":
		warns, err := compiler.Warnings(entry, opts)
		fmt.Fprint(os.Stderr, diagnostics.RenderAll(warns, "", os.Stderr.Fd()))
		if code := report(err); code != 0 {
			return code
		}
		fmt.Fprintln(os.Stderr, "ok")
	case "cost":
		pc, err := compiler.AnalyzeCosts(entry, opts)
		if code := report(err); code != 0 {
			return code
		}
		printCost(pc)
	case "hash":
		hashes, err := compiler.HashEntry(entry, opts)
		if code := report(err); code != 0 {
			return code
		}
		names := make([]string, 0, len(hashes))
		for name := range hashes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s  %s\n", hashes[name].Hex(), name)
		}
	case "docs":
		md, err := compiler.GenerateDocs(entry, opts)
		if code := report(err); code != 0 {
			return code
		}
		fmt.Print(md)
	default:
		usage()
		return 2
	}
	return 0
}

// report renders a failed compile to stderr and maps it to an exit code.
func report(err error) int {
	if err == nil {
		return 0
	}
	var be *compiler.BuildError
	if errors.As(err, &be) {
		fmt.Fprint(os.Stderr, diagnostics.RenderAll(be.Diags, "", os.Stderr.Fd()))
		return 1
	}
	fmt.Fprintln(os.Stderr, err)
	return 3
}

func printCost(pc cost.ProgramCost) {
	fmt.Printf("program %s (target tables: %v)\n", pc.ProgramName, pc.TableShortNames)
	for _, fc := range pc.Functions {
		fmt.Printf("  %-24s %v\n", fc.Name, fc.Cost)
	}
	fmt.Printf("total:            %v\n", pc.Total)
	fmt.Printf("dominant table:   %s\n", pc.DominantTable())
	fmt.Printf("attestation rows: %d\n", pc.AttestationHashRows)
	fmt.Printf("padded height:    %d\n", pc.PaddedHeight)
	fmt.Printf("est. proving:     %.2fs\n", pc.EstimatedProvingSecs)
	for _, w := range pc.LoopBoundWaste {
		fmt.Printf("hint H0004: %s:%d bounded %d but end is %d\n", w.Function, w.Line, w.Bound, w.EndConst)
	}
}

type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
