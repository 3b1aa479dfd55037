package expr

import (
	"github.com/sonia-oph/fragreshape/internal/ophierr"
	"github.com/sonia-oph/fragreshape/internal/plugin"
)

// Evaluator walks an expression AST and returns a typed Value,
// resolving variables through a per-query SymbolTable and functions
// through a built-in table first, then a user table: shadowing is
// not permitted, a user entry is only consulted on a built-in miss.
type Evaluator struct {
	Vars     *SymbolTable
	Builtins *plugin.Table
	UserFuns *plugin.Table
}

func NewEvaluator(vars *SymbolTable, builtins, userFuns *plugin.Table) *Evaluator {
	return &Evaluator{Vars: vars, Builtins: builtins, UserFuns: userFuns}
}

// Eval is the public evaluation entry point. Any error raised while
// walking the tree collapses to a single ParseError here, matching
// the original server's OPH_QUERY_ENGINE_PARSE_ERROR behaviour; the
// zero-valued Value it returns alongside the error must not be used.
func (e *Evaluator) Eval(root Node) (Value, error) {
	v, err := root.Accept(e)
	if err != nil {
		return Value{}, ophierr.Wrap(err, ophierr.ParseError, "expression evaluation failed")
	}
	return v, nil
}

func (e *Evaluator) VisitValue(n *ValueNode) (Value, error) { return n.Val, nil }

func (e *Evaluator) VisitVar(n *VarNode) (Value, error) {
	v, ok := e.Vars.Get(n.Name)
	if !ok {
		return Value{}, ophierr.New(ophierr.ParseError, "unknown symbol").WithDetail("name", n.Name)
	}
	return v, nil
}

// VisitFun implements the function calling convention: arity is
// checked against the declared argument count before any argument is
// evaluated, then arguments are evaluated right-to-left into a
// left-to-right array, with a short-circuit on any jump-flagged
// argument, and lazy call-site creation reused for the life of the
// AST.
func (e *Evaluator) VisitFun(n *FunNode) (Value, error) {
	rec, ok := e.Builtins.Lookup(n.Name)
	if !ok {
		rec, ok = e.UserFuns.Lookup(n.Name)
	}
	if !ok {
		return Value{}, ophierr.New(ophierr.ParseError, "unknown function").WithDetail("name", n.Name)
	}
	if err := rec.CheckArity(len(n.Args)); err != nil {
		return Value{}, err
	}

	args := make([]Value, len(n.Args))
	jumped := false
	for i := len(n.Args) - 1; i >= 0; i-- {
		v, err := n.Args[i].Accept(e)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
		if v.JumpFlag {
			jumped = true
		}
	}
	if jumped {
		for i := range args {
			args[i].Release()
		}
		return JumpZero(), nil
	}

	if n.site == nil {
		n.site = plugin.NewSite(rec)
	}
	site := n.site.(*plugin.Site)

	numArgs := make(plugin.Args, len(args))
	for i, a := range args {
		numArgs[i] = a.Num
	}
	result, err := site.Invoke(numArgs)
	for i := range args {
		args[i].Release()
	}
	if err != nil {
		return Value{}, err
	}
	return Number(result), nil
}

// VisitBinOp implements arithmetic (f64, with i64 promotion),
// comparison, and logical operators.
//
// Open question resolved here (see DESIGN.md): OpDiv performs true
// division, with r==0 treated as a ParseError rather than silently
// producing +/-Inf or NaN.
func (e *Evaluator) VisitBinOp(n *BinOpNode) (Value, error) {
	l, err := n.Left.Accept(e)
	if err != nil {
		return Value{}, err
	}
	r, err := n.Right.Accept(e)
	if err != nil {
		return Value{}, err
	}
	if l.JumpFlag || r.JumpFlag {
		return JumpZero(), nil
	}

	switch n.Op {
	case OpAdd:
		return Number(l.Num + r.Num), nil
	case OpSub:
		return Number(l.Num - r.Num), nil
	case OpMul:
		return Number(l.Num * r.Num), nil
	case OpDiv:
		if r.Num == 0 {
			return Value{}, ophierr.New(ophierr.ParseError, "division by zero")
		}
		return Number(l.Num / r.Num), nil
	case OpMod:
		li, ri := int64(l.Num), int64(r.Num)
		if ri == 0 {
			return Value{}, ophierr.New(ophierr.ParseError, "modulo by zero")
		}
		return Number(float64(li % ri)), nil
	case OpEq:
		return Bool(l.Num == r.Num), nil
	case OpAnd:
		return Bool(l.Truthy() && r.Truthy()), nil
	case OpOr:
		return Bool(l.Truthy() || r.Truthy()), nil
	default:
		return Value{}, ophierr.New(ophierr.ParseError, "unsupported binary operator")
	}
}

func (e *Evaluator) VisitUnaryOp(n *UnaryOpNode) (Value, error) {
	v, err := n.Operand.Accept(e)
	if err != nil {
		return Value{}, err
	}
	if v.JumpFlag {
		return JumpZero(), nil
	}
	switch n.Op {
	case OpNot:
		return Bool(!v.Truthy()), nil
	case OpNeg:
		return Number(-v.Num), nil
	default:
		return Value{}, ophierr.New(ophierr.ParseError, "unsupported unary operator")
	}
}
