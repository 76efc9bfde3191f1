package ast

// Size is either a literal array/width size or a generic parameter name.
type Size struct {
	IsParam bool
	Lit     uint64
	Param   string
}

func LitSize(n uint64) Size   { return Size{Lit: n} }
func ParamSize(name string) Size { return Size{IsParam: true, Param: name} }

type FieldType struct{ SpanV Span }
type XFieldType struct{ SpanV Span }
type BoolType struct{ SpanV Span }
type U32Type struct{ SpanV Span }
type DigestType struct{ SpanV Span }

func (t *FieldType) Pos() Span  { return t.SpanV }
func (t *XFieldType) Pos() Span { return t.SpanV }
func (t *BoolType) Pos() Span   { return t.SpanV }
func (t *U32Type) Pos() Span    { return t.SpanV }
func (t *DigestType) Pos() Span { return t.SpanV }

func (*FieldType) typeNode()  {}
func (*XFieldType) typeNode() {}
func (*BoolType) typeNode()   {}
func (*U32Type) typeNode()    {}
func (*DigestType) typeNode() {}

// ArrayType is `[T; Size]`.
type ArrayType struct {
	Elem  Type
	Size  Size
	SpanV Span
}

func (t *ArrayType) Pos() Span { return t.SpanV }
func (*ArrayType) typeNode()   {}

// TupleType is `(T1, T2, ...)`.
type TupleType struct {
	Elems []Type
	SpanV Span
}

func (t *TupleType) Pos() Span { return t.SpanV }
func (*TupleType) typeNode()   {}

// NamedType is a reference to a user struct, possibly dotted (module-qualified).
type NamedType struct {
	Path  []string
	SpanV Span
}

func (t *NamedType) Pos() Span { return t.SpanV }
func (*NamedType) typeNode()   {}

func (t *NamedType) Name() string {
	if len(t.Path) == 0 {
		return ""
	}
	return t.Path[len(t.Path)-1]
}
