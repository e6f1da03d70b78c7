// Package eval compiles and evaluates the boolean expressions used by step
// rules and branch conditions.
package eval

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Program is a compiled boolean expression.
type Program struct {
	src  string
	prog *vm.Program
}

// cache holds compiled programs keyed by source text. Definitions are
// static, so each expression compiles once per process.
var cache sync.Map

// Compile parses an expression and checks that it yields a bool.
// Variables are resolved at evaluation time; names absent from the
// environment evaluate to nil.
func Compile(src string) (*Program, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("empty expression")
	}
	if p, ok := cache.Load(src); ok {
		return p.(*Program), nil
	}
	prog, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	p := &Program{src: src, prog: prog}
	cache.Store(src, p)
	return p, nil
}

// Source returns the expression text.
func (p *Program) Source() string {
	return p.src
}

// Eval runs the program against env.
func (p *Program) Eval(env map[string]any) (bool, error) {
	out, err := expr.Run(p.prog, env)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.src, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q did not return bool (got %T)", p.src, out)
	}
	return b, nil
}

// EvalBool compiles (or reuses) and evaluates src against env.
// An empty expression is always true.
func EvalBool(src string, env map[string]any) (bool, error) {
	if strings.TrimSpace(src) == "" {
		return true, nil
	}
	p, err := Compile(src)
	if err != nil {
		return false, err
	}
	return p.Eval(env)
}
