package cost

import (
	"math"

	"github.com/mastercyb/trident/internal/ast"
)

// FunctionCost is one function's total cost vector.
type FunctionCost struct {
	Name string
	Cost Vector
}

// LoopWaste is a H0004 hint: a `for` loop declares a `bounded B` far larger
// than what its constant end expression actually needs.
type LoopWaste struct {
	Function string
	Line     int
	Bound    uint64
	EndConst uint64
}

// ProgramCost is the analyzer's top-level result (spec.md §4.3).
type ProgramCost struct {
	ProgramName          string
	Functions            []FunctionCost
	Total                Vector
	TableNames           []string
	TableShortNames      []string
	AttestationHashRows  uint64
	PaddedHeight         uint64
	EstimatedProvingSecs float64
	LoopBoundWaste       []LoopWaste
}

// DominantTable returns the short name of the table with the largest slot
// in Total, the "which table is the bottleneck" summary used in tests and
// diagnostics.
func (p ProgramCost) DominantTable() string {
	best, bestVal := 0, uint64(0)
	for i, x := range p.Total {
		if x > bestVal {
			best, bestVal = i, x
		}
	}
	if best < len(p.TableShortNames) {
		return p.TableShortNames[best]
	}
	return ""
}

// Analyzer walks a checked (or merely parsed) AST computing costs, purely
// compositionally: every construct's cost is a function of its children's
// costs plus the model's fixed overhead for that construct (spec.md §4.3).
type Analyzer struct {
	model    Model
	cfgFlags map[string]bool
	cache    map[string]Vector
	inFlight map[string]bool
	fns      map[string]*ast.Fn
}

// NewAnalyzer builds an Analyzer for one cost model and active cfg flags.
func NewAnalyzer(model Model, cfgFlags []string) *Analyzer {
	flags := make(map[string]bool, len(cfgFlags))
	for _, f := range cfgFlags {
		flags[f] = true
	}
	return &Analyzer{model: model, cfgFlags: flags}
}

func (a *Analyzer) active(item ast.Item) bool {
	cfg := item.Cfg()
	return cfg == "" || a.cfgFlags[cfg]
}

// AnalyzeFile implements the §4.3 contract.
func (a *Analyzer) AnalyzeFile(file *ast.File) ProgramCost {
	a.cache = make(map[string]Vector)
	a.inFlight = make(map[string]bool)
	a.fns = make(map[string]*ast.Fn)

	for _, item := range file.Items {
		if !a.active(item) {
			continue
		}
		if fn, ok := item.(*ast.Fn); ok && fn.HasBody() && !fn.IsGeneric() {
			a.fns[fn.Name] = fn
		}
	}

	var functions []FunctionCost
	var waste []LoopWaste
	for _, item := range file.Items {
		if !a.active(item) {
			continue
		}
		fn, ok := item.(*ast.Fn)
		if !ok || !fn.HasBody() || fn.IsGeneric() {
			continue
		}
		cost := a.fnCost(fn.Name)
		functions = append(functions, FunctionCost{Name: fn.Name, Cost: cost})
		waste = append(waste, findLoopWaste(fn)...)
	}

	var total Vector
	if main, ok := a.fns["main"]; ok {
		total = a.fnCost(main.Name).Add(a.model.CallOverhead())
	} else {
		for _, fc := range functions {
			total = total.Add(fc.Cost)
		}
	}

	instrCount := total[TblProcessor]
	if instrCount < 10 {
		instrCount = 10
	}
	attestation := ceilDiv(instrCount, 10) * a.model.HashRowsPerPermutation()

	padded := nextPowerOfTwo(maxU64(total.MaxHeight(), attestation))
	provingSecs := float64(padded) * 300 * log2(float64(padded)) * 3e-9

	return ProgramCost{
		ProgramName:          file.Name,
		Functions:            functions,
		Total:                total,
		TableNames:           a.model.TableNames(),
		TableShortNames:      a.model.TableShortNames(),
		AttestationHashRows:  attestation,
		PaddedHeight:         padded,
		EstimatedProvingSecs: provingSecs,
		LoopBoundWaste:       waste,
	}
}

// fnCost computes (and memoizes) a function's total body cost. A name
// currently on the call stack is self/mutual recursion; spec.md §4.3 says
// this "yields ZERO defensively" since the checker is expected to have
// already rejected the program.
func (a *Analyzer) fnCost(name string) Vector {
	if v, ok := a.cache[name]; ok {
		return v
	}
	if a.inFlight[name] {
		return Zero
	}
	fn, ok := a.fns[name]
	if !ok {
		return Zero
	}
	a.inFlight[name] = true
	cost := a.blockCost(fn.Body)
	a.inFlight[name] = false
	a.cache[name] = cost
	return cost
}

func (a *Analyzer) blockCost(stmts []ast.Statement) Vector {
	var total Vector
	for _, s := range stmts {
		total = total.Add(a.stmtCost(s))
	}
	return total
}

func (a *Analyzer) stmtCost(s ast.Statement) Vector {
	switch v := s.(type) {
	case *ast.Let:
		return a.exprCost(v.Init).Add(a.model.StackOp())
	case *ast.Assign:
		return a.exprCost(v.Value).Add(a.model.StackOp().Scale(2))
	case *ast.TupleAssign:
		return a.exprCost(v.Value).Add(a.model.StackOp().Scale(uint64(2 * len(v.Names))))
	case *ast.If:
		return a.exprCost(v.Cond).Add(a.blockCost(v.Then).Max(a.blockCost(v.Else))).Add(a.model.IfOverhead())
	case *ast.For:
		return a.forCost(v)
	case *ast.ExprStmt:
		return a.exprCost(v.Expr)
	case *ast.Return:
		if v.Value == nil {
			return Zero
		}
		return a.exprCost(v.Value)
	case *ast.Reveal:
		return a.revealCost(v.Fields)
	case *ast.Seal:
		return a.sealCost(v.Fields)
	case *ast.Asm:
		n := uint64(0)
		for _, line := range v.Body {
			if line != "" {
				n++
			}
		}
		return a.model.StackOp().Scale(n)
	case *ast.Match:
		return a.matchCost(v)
	default:
		return Zero
	}
}

func (a *Analyzer) forCost(v *ast.For) Vector {
	iterations := uint64(1)
	if v.Bound != nil {
		iterations = *v.Bound
	} else if lit, ok := v.End.(*ast.IntLiteral); ok {
		iterations = lit.Value
	}
	body := a.blockCost(v.Body).Add(a.model.LoopOverhead())
	return a.exprCost(v.End).Add(body.Scale(iterations))
}

func (a *Analyzer) revealCost(fields []ast.StructInitField) Vector {
	total := a.model.StackOp().Add(a.model.BuiltinCost("pub_write1"))
	for _, f := range fields {
		total = total.Add(a.exprCost(f.Value)).Add(a.model.BuiltinCost("pub_write1"))
	}
	return total
}

func (a *Analyzer) sealCost(fields []ast.StructInitField) Vector {
	total := a.model.StackOp() // tag
	for _, f := range fields {
		total = total.Add(a.exprCost(f.Value))
	}
	padding := 10 - 1 - len(fields)
	if padding > 0 {
		total = total.Add(a.model.StackOp().Scale(uint64(padding)))
	}
	total = total.Add(a.model.BuiltinCost("hash")).Add(a.model.BuiltinCost("pub_write5"))
	return total
}

func (a *Analyzer) matchCost(v *ast.Match) Vector {
	total := a.exprCost(v.Scrutinee)
	var litCount int
	var best Vector
	first := true
	for _, arm := range v.Arms {
		if !arm.Wildcard {
			litCount++
			total = total.Add(a.model.StackOp().Scale(3)).Add(a.model.IfOverhead())
		}
		armCost := a.blockCost(arm.Body)
		if first {
			best, first = armCost, false
		} else {
			best = best.Max(armCost)
		}
	}
	return total.Add(best)
}

func (a *Analyzer) exprCost(e ast.Expression) Vector {
	switch v := e.(type) {
	case *ast.IntLiteral, *ast.BoolLiteral, *ast.Var:
		return a.model.StackOp()
	case *ast.BinOp:
		return a.exprCost(v.Lhs).Add(a.exprCost(v.Rhs)).Add(a.model.BinOpCost(v.Op))
	case *ast.Call:
		return a.callCost(v)
	case *ast.FieldAccess:
		return a.exprCost(v.Base).Add(a.model.StackOp())
	case *ast.Index:
		return a.exprCost(v.Base).Add(a.exprCost(v.Idx)).Add(a.model.StackOp())
	case *ast.StructInit:
		var total Vector
		for _, f := range v.Fields {
			total = total.Add(a.exprCost(f.Value))
		}
		return total
	case *ast.ArrayInit:
		var total Vector
		for _, el := range v.Elems {
			total = total.Add(a.exprCost(el))
		}
		return total
	case *ast.TupleExpr:
		var total Vector
		for _, el := range v.Elems {
			total = total.Add(a.exprCost(el))
		}
		return total
	default:
		return Zero
	}
}

func (a *Analyzer) callCost(v *ast.Call) Vector {
	var total Vector
	for _, arg := range v.Args {
		total = total.Add(a.exprCost(arg))
	}
	name := v.Name()
	if len(v.Path) <= 1 {
		if _, ok := a.fns[name]; ok {
			return total.Add(a.fnCost(name)).Add(a.model.CallOverhead())
		}
	}
	return total.Add(a.model.BuiltinCost(name))
}

// findLoopWaste implements the H0004 hint for every top-level for loop in a
// function (spec.md §9's Open Question 2, resolved as "report all").
func findLoopWaste(fn *ast.Fn) []LoopWaste {
	var out []LoopWaste
	for _, s := range fn.Body {
		forStmt, ok := s.(*ast.For)
		if !ok || forStmt.Bound == nil {
			continue
		}
		lit, ok := forStmt.End.(*ast.IntLiteral)
		if !ok {
			continue
		}
		b, k := *forStmt.Bound, lit.Value
		if b > 4*k && b > 8 {
			out = append(out, LoopWaste{Function: fn.Name, Line: forStmt.SpanV.Line, Bound: b, EndConst: k})
		}
	}
	return out
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// nextPowerOfTwo returns the smallest power of two >= n (n >= 1).
func nextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

func log2(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Log2(x)
}
