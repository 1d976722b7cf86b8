package accesslog

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/darmiel/polsim/internal/core"
)

// Filter selects log entries with a boolean expression, e.g.
//
//	department == "finance" && action in ["export", "delete"]
//
// Variables: identity, line and the recognized request attributes.
// Attributes absent from an entry are undefined in the expression (nil).
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles the expression. An empty expression returns a nil filter.
func CompileFilter(code string) (*Filter, error) {
	if code == "" {
		return nil, nil
	}
	program, err := expr.Compile(code, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling filter expression: %w", err)
	}
	return &Filter{source: code, program: program}, nil
}

// Match reports whether the entry passes the filter.
func (f *Filter) Match(entry core.LogEntry) (bool, error) {
	if f == nil {
		return true, nil
	}
	env := map[string]any{
		"identity": entry.Identity,
		"line":     entry.Line,
	}
	for k, v := range entry.Request.Map() {
		env[k] = v
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluating filter '%s': %w", f.source, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter '%s' did not evaluate to a boolean", f.source)
	}
	return b, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}
