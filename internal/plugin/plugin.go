// Package plugin implements the calling convention for user-defined
// scalar/aggregate functions and the process-wide and per-query
// function tables the evaluator consults.
package plugin

import (
	"sync"

	"github.com/sonia-oph/fragreshape/internal/ophierr"
)

// FuncType says whether Record.Arity is a fixed argument count or the
// minimum count of a variadic function.
type FuncType uint8

const (
	Fixed FuncType = iota
	Variadic
)

// Args is the marshalled, left-to-right argument list a Callable
// receives. Values are float64 in this engine's expression type
// system: all arithmetic is computed in f64.
type Args []float64

// Callable is the plugin's compute step: given first==true for the
// first invocation at a call site and the marshalled arguments,
// return the function's result. err != nil reports PluginError up
// through the evaluator.
type Callable func(first bool, args Args) (float64, error)

// ClearFunc is the plugin's teardown step: it takes no arguments and
// releases the plugin's per-call-site state. The engine guarantees at
// most one Clear call per call site.
type ClearFunc func()

// Record describes one registered function: its arity contract and
// its compute/clear entry points.
type Record struct {
	Name     string
	FunType  FuncType
	Arity    int // for Fixed: exact count; for Variadic: minimum count
	Call     Callable
	NewClear func() ClearFunc // produces a fresh clear closure per call site
}

// CheckArity validates a call's argument count against r's contract:
// the count must equal Arity exactly for a fixed function, or be at
// least Arity for a variadic one.
func (r Record) CheckArity(provided int) error {
	switch r.FunType {
	case Fixed:
		if provided != r.Arity {
			return ophierr.New(ophierr.ParseError, "function arity mismatch").
				WithDetail("function", r.Name).WithDetail("want", r.Arity).WithDetail("got", provided)
		}
	case Variadic:
		if provided < r.Arity {
			return ophierr.New(ophierr.ParseError, "function requires at least N arguments").
				WithDetail("function", r.Name).WithDetail("min", r.Arity).WithDetail("got", provided)
		}
	}
	return nil
}

// Site is the per-call-site descriptor the engine threads through a
// function's lifetime within one AST: it tracks whether Call has run
// at least once and whether Clear has already fired, so teardown
// invokes Clear at most once.
type Site struct {
	rec         Record
	initialized bool
	cleared     bool
	clear       ClearFunc
}

// NewSite creates a call-site descriptor bound to rec.
func NewSite(rec Record) *Site { return &Site{rec: rec} }

// Invoke marshals args, checks arity, and calls the plugin, tracking
// first-call state for the descriptor.
func (s *Site) Invoke(args Args) (float64, error) {
	if err := s.rec.CheckArity(len(args)); err != nil {
		return 0, err
	}
	first := !s.initialized
	if first && s.rec.NewClear != nil {
		s.clear = s.rec.NewClear()
	}
	s.initialized = true
	v, err := s.rec.Call(first, args)
	if err != nil {
		return 0, ophierr.Wrap(err, ophierr.PluginError, "plugin call failed").WithDetail("function", s.rec.Name)
	}
	return v, nil
}

// Clear tears the call site down, invoking the plugin's clear entry
// at most once. Safe to call multiple times (e.g. from a defer plus
// explicit teardown walk).
func (s *Site) Clear() {
	if s.cleared {
		return
	}
	s.cleared = true
	if s.clear != nil {
		s.clear()
	}
}

// Table is a registry of function Records. The built-in table is
// process-wide and read-only once NewBuiltinTable returns; user tables are per-query
// and single-writer.
type Table struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewTable() *Table { return &Table{recs: make(map[string]Record)} }

// Register adds or replaces a Record. Used by the plugin loader
// (writer side of the reader-biased rwlock) and by per-query user
// tables during setup.
func (t *Table) Register(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recs[rec.Name] = rec
}

// Lookup resolves a function by name. Safe for concurrent readers;
// never blocks on any other lock while holding t.mu.
func (t *Table) Lookup(name string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.recs[name]
	return rec, ok
}
