// Package predicate evaluates match conditions against inbound messages.
//
// An Extractor pulls a comparable Value out of a message.Message. Extractors
// are partial: a missing header, a request method asked of a WebSocket frame,
// or a JSON path that selects nothing all yield ErrNoValue, and every
// predicate built on an absent value evaluates to false.
//
// Predicates form a closed set of variants (Equals, Contains, StartsWith,
// EndsWith, Matches, Glob, Exists, Expr, And, Or, Not, Any). Evaluation is
// total: it never panics and never returns an error. A custom extractor that
// fails or panics is reported as a *EvaluationError, logged, and treated as a
// non-match.
//
// # Usage
//
//	body := predicate.Equals{Extractor: predicate.Body(), Value: predicate.Text("foo")}
//	hello := predicate.And{
//	    predicate.Equals{Extractor: predicate.Method(), Value: predicate.Text("POST")},
//	    body,
//	}
//	ok := predicate.Evaluate(hello, msg)
package predicate
