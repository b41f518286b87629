package predicate

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/mocket/pkg/logging"
	"github.com/getmockd/mocket/pkg/message"
)

// Evaluator evaluates predicates and logs faulty extractors.
type Evaluator struct {
	log *slog.Logger
}

// NewEvaluator returns an Evaluator. A nil logger discards output.
func NewEvaluator(log *slog.Logger) *Evaluator {
	if log == nil {
		log = logging.Nop()
	}
	return &Evaluator{log: log}
}

var defaultEvaluator = NewEvaluator(nil)

// Evaluate reports whether p matches msg, discarding diagnostics.
func Evaluate(p Predicate, msg message.Message) bool {
	return defaultEvaluator.Evaluate(p, msg)
}

// Evaluate reports whether p matches msg. It never panics. A nil predicate
// matches nothing.
func (e *Evaluator) Evaluate(p Predicate, msg message.Message) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("predicate evaluation panicked", "panic", fmt.Sprint(r))
			matched = false
		}
	}()
	return e.eval(p, msg)
}

func (e *Evaluator) eval(p Predicate, msg message.Message) bool {
	switch p := p.(type) {
	case Any:
		return true
	case And:
		for _, sub := range p {
			if !e.eval(sub, msg) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range p {
			if e.eval(sub, msg) {
				return true
			}
		}
		return false
	case Not:
		return !e.eval(p.P, msg)
	case Equals:
		v, ok := e.extract(p.Extractor, msg)
		return ok && v.Equal(p.Value)
	case Contains:
		v, ok := e.extract(p.Extractor, msg)
		return ok && v.contains(p.Value)
	case StartsWith:
		v, ok := e.extract(p.Extractor, msg)
		return ok && v.hasPrefix(p.Value)
	case EndsWith:
		v, ok := e.extract(p.Extractor, msg)
		return ok && v.hasSuffix(p.Value)
	case Matches:
		v, ok := e.extract(p.Extractor, msg)
		return ok && p.Pattern != nil && p.Pattern.Match(v.Bytes())
	case Glob:
		v, ok := e.extract(p.Extractor, msg)
		if !ok {
			return false
		}
		matched, err := doublestar.Match(p.Pattern, v.String())
		return err == nil && matched
	case Exists:
		_, ok := e.extract(p.Extractor, msg)
		return ok
	case *Expr:
		matched, err := p.run(msg)
		if err != nil {
			e.log.Debug("expression evaluation failed", "expr", p.Source, "error", err)
			return false
		}
		return matched
	default:
		return false
	}
}

func (e *Evaluator) extract(ex Extractor, msg message.Message) (Value, bool) {
	v, err := ex.Extract(msg)
	if err == nil {
		return v, true
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		e.log.Warn("extractor failed", "extractor", evalErr.Extractor, "error", evalErr.Err)
	}
	return Value{}, false
}
