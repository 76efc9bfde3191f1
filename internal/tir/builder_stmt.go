package tir

import (
	"fmt"

	"github.com/mastercyb/trident/internal/ast"
	"github.com/mastercyb/trident/internal/types"
)

// lowerBlock lowers a statement list, popping any bindings the block
// introduced when it closes so branch arms and loop bodies are
// stack-neutral.
func (b *Builder) lowerBlock(stmts []ast.Statement) {
	before := b.stack.EntryCount()
	for _, s := range stmts {
		b.lowerStmt(s)
	}
	if added := b.stack.EntryCount() - before; added > 0 {
		b.emit(b.stack.Pop(added)...)
	}
}

func (b *Builder) lowerStmt(s ast.Statement) {
	switch v := s.(type) {
	case *ast.Let:
		b.lowerLet(v)
	case *ast.Assign:
		b.lowerAssign(v)
	case *ast.TupleAssign:
		b.lowerTupleAssign(v)
	case *ast.If:
		b.lowerIf(v)
	case *ast.For:
		b.lowerFor(v)
	case *ast.ExprStmt:
		b.lowerExprStmt(v)
	case *ast.Return:
		if v.Value != nil {
			b.lowerExpr(v.Value)
		}
	case *ast.Reveal:
		b.lowerReveal(v)
	case *ast.Seal:
		b.lowerSeal(v)
	case *ast.Asm:
		b.lowerAsm(v)
	case *ast.Match:
		b.lowerMatch(v)
	}
}

// lowerLet lowers the initializer, then marks the top entry as named
// (spec.md §4.4). A tuple pattern splits the top entry per component.
func (b *Builder) lowerLet(v *ast.Let) {
	ty := b.exprTy(v.Init)
	b.lowerExpr(v.Init)
	switch pat := v.Pattern.(type) {
	case *ast.NamePattern:
		b.stack.NameTop(pat.Name)
		b.varTys[pat.Name] = ty
	case *ast.TuplePattern:
		tup, ok := ty.(types.Tuple)
		if !ok || len(tup.Elems) != len(pat.Names) {
			b.emit(Comment{Text: "internal: tuple let arity mismatch"})
			return
		}
		widths := make([]int, len(pat.Names))
		for i, el := range tup.Elems {
			widths[i] = b.width(el)
			b.varTys[pat.Names[i]] = el
		}
		b.stack.SplitTopTuple(pat.Names, widths)
	}
}

func (b *Builder) lowerAssign(v *ast.Assign) {
	b.lowerExpr(v.Value)
	switch place := v.Place.(type) {
	case *ast.VarPlace:
		// A spilled target is written directly to its RAM region inside
		// AssignVar; no reload is needed for a full overwrite.
		ops, ok := b.stack.AssignVar(place.Name)
		if !ok {
			b.emit(Comment{Text: fmt.Sprintf("internal: assign to unknown %q", place.Name)})
			b.emit(b.stack.Pop(1)...)
			return
		}
		b.emit(ops...)
	case *ast.FieldPlace, *ast.IndexPlace:
		b.lowerPlacePatch(v.Place)
	}
}

// lowerPlacePatch stores the value on top of the stack into a cell range
// of a resident aggregate, computed from the struct layout or element
// width (spec.md §4.4 "patch the appropriate slots").
func (b *Builder) lowerPlacePatch(p ast.Place) {
	root, offset, w, ok := b.placeCells(p)
	if !ok {
		b.emit(Comment{Text: "internal: unsupported place"})
		b.emit(b.stack.Pop(1)...)
		return
	}
	if ops, found := b.stack.AccessVar(root); found {
		b.emit(ops...)
	}
	d, found := b.stack.FindVarDepth(root)
	rootW, _ := b.stack.VarWidth(root)
	if !found {
		b.emit(Comment{Text: fmt.Sprintf("internal: place root %q not resident", root)})
		b.emit(b.stack.Pop(1)...)
		return
	}
	// Depth of the target range's top cell, seen past the value temp.
	cell := d + (rootW - offset - w)
	for i := 0; i < w; i++ {
		b.emit(Swap{Depth: cell + w - i}, Pop{N: 1})
	}
	b.stack.DropTop(1)
}

// placeCells resolves a place chain to (root variable, cell offset from
// the aggregate's bottom, cell width). Runtime indices are not
// patchable in place and return ok=false.
func (b *Builder) placeCells(p ast.Place) (root string, offset, width int, ok bool) {
	switch v := p.(type) {
	case *ast.VarPlace:
		ty, found := b.varTys[v.Name]
		if !found {
			return "", 0, 0, false
		}
		return v.Name, 0, b.width(ty), true
	case *ast.FieldPlace:
		root, offset, _, ok = b.placeCells(v.Base)
		if !ok {
			return
		}
		baseTy := b.placeTy(v.Base)
		s, isStruct := baseTy.(types.Struct)
		if !isStruct {
			return "", 0, 0, false
		}
		for _, f := range s.Fields {
			fw := b.width(f.Ty)
			if f.Name == v.Field {
				return root, offset, fw, true
			}
			offset += fw
		}
		return "", 0, 0, false
	case *ast.IndexPlace:
		root, offset, _, ok = b.placeCells(v.Base)
		if !ok {
			return
		}
		lit, isLit := v.Idx.(*ast.IntLiteral)
		if !isLit {
			return "", 0, 0, false
		}
		baseTy := b.placeTy(v.Base)
		arr, isArr := baseTy.(types.Array)
		if !isArr {
			return "", 0, 0, false
		}
		ew := b.width(arr.Elem)
		return root, offset + int(lit.Value)*ew, ew, true
	}
	return "", 0, 0, false
}

func (b *Builder) placeTy(p ast.Place) types.Ty {
	switch v := p.(type) {
	case *ast.VarPlace:
		if ty, ok := b.varTys[v.Name]; ok {
			return ty
		}
	case *ast.FieldPlace:
		if s, ok := b.placeTy(v.Base).(types.Struct); ok {
			for _, f := range s.Fields {
				if f.Name == v.Field {
					return f.Ty
				}
			}
		}
	case *ast.IndexPlace:
		if arr, ok := b.placeTy(v.Base).(types.Array); ok {
			return arr.Elem
		}
	}
	return types.Field{}
}

func (b *Builder) lowerTupleAssign(v *ast.TupleAssign) {
	b.lowerExpr(v.Value)
	tup, ok := b.exprTy(v.Value).(types.Tuple)
	if !ok || len(tup.Elems) != len(v.Names) {
		b.emit(Comment{Text: "internal: tuple assign arity mismatch"})
		b.emit(b.stack.Pop(1)...)
		return
	}
	// Peel components off the value, topmost (last name) first: re-slice
	// the aggregate's top cells into a temp entry, then store it.
	widths := make([]int, len(v.Names))
	for i, el := range tup.Elems {
		widths[i] = b.width(el)
	}
	b.stack.DropTop(1)
	for i := len(v.Names) - 1; i >= 0; i-- {
		b.stack.PushTemp(widths[i])
		ops, ok := b.stack.AssignVar(v.Names[i])
		if !ok {
			b.emit(Comment{Text: fmt.Sprintf("internal: assign to unknown %q", v.Names[i])})
			b.emit(b.stack.Pop(1)...)
			continue
		}
		b.emit(ops...)
	}
}

// lowerIf saves the model around each branch and verifies both arms leave
// the stack in the same shape (spec.md §4.4).
func (b *Builder) lowerIf(v *ast.If) {
	cond := b.capture(func() { b.lowerExpr(v.Cond) })
	b.stack.DropTop(1) // consumed by the branch dispatch

	entry := b.stack.Snapshot()
	thenOps := b.capture(func() { b.lowerBlock(v.Then) })
	thenShape := b.stack.Snapshot()

	if v.Else == nil {
		b.stack.Restore(entry)
		if !SameShape(thenShape, entry) {
			b.emit(Comment{Text: "internal: if branch changes stack shape"})
		}
		b.emit(IfOnly{Cond: cond, Then: thenOps})
		return
	}

	b.stack.Restore(entry)
	elseOps := b.capture(func() { b.lowerBlock(v.Else) })
	if !SameShape(thenShape, b.stack.Snapshot()) {
		b.emit(Comment{Text: "internal: if/else branches disagree on stack shape"})
	}
	b.emit(IfElse{Cond: cond, Then: thenOps, Else: elseOps})
}

// lowerFor emits start and end, then the body inside a nested Loop with
// a count from the declared bound, the constant end, or 1 (spec.md §4.4).
func (b *Builder) lowerFor(v *ast.For) {
	b.lowerExpr(v.Start)
	b.stack.NameTop(v.Var)
	b.varTys[v.Var] = b.exprTy(v.Start)

	b.lowerExpr(v.End)
	b.emit(b.stack.Pop(1)...) // count is static in the Loop op

	count := uint64(1)
	if v.Bound != nil {
		count = *v.Bound
	} else if lit, ok := v.End.(*ast.IntLiteral); ok {
		count = lit.Value
	}

	entry := b.stack.Snapshot()
	body := b.capture(func() {
		b.lowerBlock(v.Body)
		// Advance the loop variable for the next iteration, reaching past
		// the iteration counter the loop protocol keeps on top.
		if d, ok := b.stack.FindVarDepth(v.Var); ok && d == 0 {
			b.emit(Swap{Depth: 1}, Push{Value: 1}, Add{}, Swap{Depth: 1})
		} else {
			b.emit(Comment{Text: "loop var buried; left to the emitter's counter"})
		}
	})
	if !SameShape(entry, b.stack.Snapshot()) {
		b.emit(Comment{Text: "internal: loop body changes stack shape"})
		b.stack.Restore(entry)
	}
	b.emit(Loop{Count: count, Body: body})

	b.emit(b.stack.Pop(1)...) // the loop variable
	delete(b.varTys, v.Var)
}

func (b *Builder) lowerExprStmt(v *ast.ExprStmt) {
	before := b.stack.EntryCount()
	b.lowerExpr(v.Expr)
	// A value-producing expression used as a statement discards its result.
	if added := b.stack.EntryCount() - before; added > 0 {
		b.emit(b.stack.Pop(added)...)
	}
}

// lowerReveal publishes the event tag then each field value (spec.md
// §4.4): tag push + write, then per field lower + write.
func (b *Builder) lowerReveal(v *ast.Reveal) {
	if arity, ok := b.eventArity[v.Event]; ok && arity != len(v.Fields) {
		b.emit(Comment{Text: fmt.Sprintf("internal: event %q arity mismatch", v.Event)})
	}
	b.emit(Push{Value: b.eventTags[v.Event]}, PubWrite{N: 1})
	for _, f := range v.Fields {
		b.lowerExpr(f.Value)
		b.emit(PubWrite{N: 1})
		b.stack.DropTop(1)
	}
}

// lowerSeal hashes the tag plus fields padded to the hash rate and
// publishes the digest (spec.md §4.4).
func (b *Builder) lowerSeal(v *ast.Seal) {
	if arity, ok := b.eventArity[v.Event]; ok && arity != len(v.Fields) {
		b.emit(Comment{Text: fmt.Sprintf("internal: event %q arity mismatch", v.Event)})
	}
	b.emit(b.stack.EnsureSpace(b.tc.HashRate)...)
	b.emit(Push{Value: b.eventTags[v.Event]})
	b.stack.PushTemp(1)
	for _, f := range v.Fields {
		b.lowerExpr(f.Value)
	}
	padding := b.tc.HashRate - 1 - len(v.Fields)
	for i := 0; i < padding; i++ {
		b.emit(Push{Value: 0})
		b.stack.PushTemp(1)
	}
	b.emit(Hash{})
	b.stack.DropTop(1 + len(v.Fields) + maxInt(padding, 0))
	b.stack.PushTemp(b.tc.DigestWidth)
	b.emit(PubWrite{N: b.tc.DigestWidth})
	b.stack.DropTop(1)
}

// lowerAsm appends the raw body lines and adjusts the model by the
// declared stack effect; a mismatched target drops the block entirely.
func (b *Builder) lowerAsm(v *ast.Asm) {
	if v.Target != "" && v.Target != b.tc.Name {
		return
	}
	for _, line := range v.Body {
		b.emit(Raw{Text: line})
	}
	switch {
	case v.StackEffect > 0:
		b.emit(b.stack.EnsureSpace(v.StackEffect)...)
		b.stack.PushTemp(v.StackEffect)
	case v.StackEffect < 0:
		b.stack.DropTop(-v.StackEffect)
	}
}

// lowerMatch lowers the scrutinee, then a dup/compare/dispatch sequence
// per literal arm; a wildcard arm runs unconditionally (spec.md §4.4).
func (b *Builder) lowerMatch(v *ast.Match) {
	b.lowerExpr(v.Scrutinee)
	entry := b.stack.Snapshot()
	for _, arm := range v.Arms {
		body := b.capture(func() { b.lowerBlock(arm.Body) })
		b.stack.Restore(entry)
		if arm.Wildcard {
			b.emit(body...)
			continue
		}
		b.emit(IfOnly{
			Cond: []Op{Dup{Depth: 0}, Push{Value: arm.Lit}, Eq{}},
			Then: body,
		})
	}
	b.emit(b.stack.Pop(1)...) // scrutinee
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
