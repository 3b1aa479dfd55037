package expr

import (
	"testing"

	"github.com/sonia-oph/fragreshape/internal/plugin"
)

func newEval() (*Evaluator, *plugin.Table) {
	user := plugin.NewTable()
	builtins := plugin.NewBuiltinTable()
	return NewEvaluator(NewSymbolTable(), builtins, user), user
}

func TestArithmeticAndComparison(t *testing.T) {
	e, _ := newEval()
	add := &BinOpNode{Op: OpAdd, Left: &ValueNode{Val: Number(2)}, Right: &ValueNode{Val: Number(3)}}
	v, err := e.Eval(add)
	if err != nil || v.Num != 5 {
		t.Fatalf("2+3 = %v, %v", v, err)
	}

	eq := &BinOpNode{Op: OpEq, Left: &ValueNode{Val: Number(4)}, Right: &ValueNode{Val: Number(4)}}
	v, err = e.Eval(eq)
	if err != nil || v.Num != 1 {
		t.Fatalf("4==4 = %v, %v", v, err)
	}
}

func TestShortCircuitOnJumpFlag(t *testing.T) {
	callCount := 0
	user := plugin.NewTable()
	user.Register(plugin.Record{
		Name: "f", FunType: plugin.Fixed, Arity: 1,
		Call: func(first bool, args plugin.Args) (float64, error) {
			callCount++
			return 42, nil
		},
	})
	ev := NewEvaluator(NewSymbolTable(), plugin.NewBuiltinTable(), user)

	jumpArg := &ValueNode{Val: JumpZero()}
	call := &FunNode{Name: "f", Args: []Node{jumpArg}}
	v, err := ev.Eval(call)
	if err != nil {
		t.Fatal(err)
	}
	if !v.JumpFlag || v.Num != 0 {
		t.Fatalf("expected jump-flagged zero, got %+v", v)
	}
	if callCount != 0 {
		t.Fatalf("function was invoked despite jump flag, callCount=%d", callCount)
	}
}

func TestTeardownCallsClearExactlyOnce(t *testing.T) {
	clears := 0
	user := plugin.NewTable()
	user.Register(plugin.Record{
		Name: "g", FunType: plugin.Fixed, Arity: 0,
		Call: func(first bool, args plugin.Args) (float64, error) { return 1, nil },
		NewClear: func() plugin.ClearFunc {
			return func() { clears++ }
		},
	})
	ev := NewEvaluator(NewSymbolTable(), plugin.NewBuiltinTable(), user)

	call := &FunNode{Name: "g"}
	if _, err := ev.Eval(call); err != nil {
		t.Fatal(err)
	}
	if _, err := ev.Eval(call); err != nil {
		t.Fatal(err)
	}
	Teardown(call)
	Teardown(call)
	if clears != 1 {
		t.Fatalf("clear invoked %d times across reuse+teardown, want 1", clears)
	}
}

func TestUnknownSymbol(t *testing.T) {
	e, _ := newEval()
	if _, err := e.Eval(&VarNode{Name: "nope"}); err == nil {
		t.Fatal("expected ParseError for unknown symbol")
	}
}

func TestDivisionByZero(t *testing.T) {
	e, _ := newEval()
	div := &BinOpNode{Op: OpDiv, Left: &ValueNode{Val: Number(1)}, Right: &ValueNode{Val: Number(0)}}
	if _, err := e.Eval(div); err == nil {
		t.Fatal("expected error dividing by zero")
	}
}
