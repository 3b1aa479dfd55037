// Package expr implements the expression AST, symbol table, and
// evaluator used to compute per-row fields: dimension indices and
// user-defined reductions.
package expr

// Kind discriminates the payload carried by a Value.
type Kind uint8

const (
	KindNumber Kind = iota
	KindString
	KindBinary
)

// Value is the evaluator's tagged result type. FreeFlag marks
// heap-owned payloads (Str/Bin) the caller must release; JumpFlag
// marks short-circuit propagation, kept as explicit bits rather than
// folded away.
type Value struct {
	Kind      Kind
	Num       float64
	Str       string
	Bin       []byte
	FreeFlag  bool
	JumpFlag  bool
}

// Number builds a plain, non-owning numeric Value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Bool builds the 0/1-valued numeric Value comparison and logical
// operators return.
func Bool(b bool) Value {
	if b {
		return Number(1)
	}
	return Number(0)
}

// JumpZero is the short-circuit sentinel: a jump-flagged f64 zero.
func JumpZero() Value { return Value{Kind: KindNumber, Num: 0, JumpFlag: true} }

// String builds an owning string Value; the evaluator frees it when
// FreeFlag is set and the value is discarded.
func String(s string) Value { return Value{Kind: KindString, Str: s, FreeFlag: true} }

// Binary builds an owning binary Value.
func Binary(b []byte) Value { return Value{Kind: KindBinary, Bin: b, FreeFlag: true} }

// Truthy reports f64 truthiness: any nonzero number is true.
func (v Value) Truthy() bool { return v.Kind == KindNumber && v.Num != 0 }

// Release drops any heap-owned payload per the value's kind. Safe to
// call on a non-owning value (a no-op).
func (v *Value) Release() {
	if !v.FreeFlag {
		return
	}
	switch v.Kind {
	case KindString:
		v.Str = ""
	case KindBinary:
		v.Bin = nil
	}
	v.FreeFlag = false
}
