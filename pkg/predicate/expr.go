package predicate

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/mocket/pkg/message"
)

// Expr is a compiled boolean expression evaluated against the message
// environment, for example:
//
//	method == "POST" && headers["X-Tenant"] == "acme" && body contains "id"
//	kind == "text" && payload startsWith "sub:"
type Expr struct {
	Source  string
	program *vm.Program
}

// exprEnv is the environment visible to expressions.
type exprEnv struct {
	Kind    string            `expr:"kind"`
	Method  string            `expr:"method"`
	Path    string            `expr:"path"`
	Query   map[string]string `expr:"query"`
	Headers map[string]string `expr:"headers"`
	Body    string            `expr:"body"`
	Version string            `expr:"version"`
	Payload string            `expr:"payload"`
}

// NewExpr compiles src. The expression must evaluate to a boolean.
func NewExpr(src string) (*Expr, error) {
	program, err := expr.Compile(src, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExpression, err)
	}
	return &Expr{Source: src, program: program}, nil
}

func newExprEnv(msg message.Message) exprEnv {
	env := exprEnv{Kind: msg.Kind().String()}
	switch m := msg.(type) {
	case *message.Request:
		env.Method = m.Method
		env.Path = m.Path
		env.Body = string(m.Body)
		env.Version = m.Version.String()
		env.Query = make(map[string]string, len(m.Query))
		for k, v := range m.Query {
			if len(v) > 0 {
				env.Query[k] = v[0]
			}
		}
		env.Headers = make(map[string]string, len(m.Header))
		for k, v := range m.Header {
			if len(v) > 0 {
				env.Headers[k] = v[0]
			}
		}
	case *message.Frame:
		env.Payload = string(m.Payload)
	}
	return env
}

func (e *Expr) run(msg message.Message) (bool, error) {
	if e == nil || e.program == nil {
		return false, fmt.Errorf("%w: not compiled", ErrInvalidExpression)
	}
	out, err := expr.Run(e.program, newExprEnv(msg))
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	return ok && b, nil
}
