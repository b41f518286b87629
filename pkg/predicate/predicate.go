package predicate

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

// Predicate is a boolean condition over a message. The set of variants is
// closed; see the package documentation.
type Predicate interface {
	isPredicate()
}

// Equals matches when the extracted value is exactly Value.
type Equals struct {
	Extractor Extractor
	Value     Value
}

// Contains matches when the extracted value contains Value.
type Contains struct {
	Extractor Extractor
	Value     Value
}

// StartsWith matches when the extracted value begins with Value.
type StartsWith struct {
	Extractor Extractor
	Value     Value
}

// EndsWith matches when the extracted value ends with Value.
type EndsWith struct {
	Extractor Extractor
	Value     Value
}

// Matches matches when Pattern finds a match in the extracted value. Use
// NewMatches for whole-value semantics.
type Matches struct {
	Extractor Extractor
	Pattern   *regexp.Regexp
}

// NewMatches compiles pattern so that it must match the entire extracted value.
func NewMatches(ex Extractor, pattern string) (Matches, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return Matches{}, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err)
	}
	return Matches{Extractor: ex, Pattern: re}, nil
}

// Glob matches the extracted value against a doublestar pattern such as
// "/api/**/users/*".
type Glob struct {
	Extractor Extractor
	Pattern   string
}

// NewGlob validates pattern and returns a Glob predicate.
func NewGlob(ex Extractor, pattern string) (Glob, error) {
	if !doublestar.ValidatePattern(pattern) {
		return Glob{}, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return Glob{Extractor: ex, Pattern: pattern}, nil
}

// Exists matches when the extractor produces any value.
type Exists struct {
	Extractor Extractor
}

// And matches when every element matches. An empty And matches.
type And []Predicate

// Or matches when any element matches. An empty Or never matches.
type Or []Predicate

// Not inverts P.
type Not struct {
	P Predicate
}

// Any matches unconditionally.
type Any struct{}

func (Equals) isPredicate()     {}
func (Contains) isPredicate()   {}
func (StartsWith) isPredicate() {}
func (EndsWith) isPredicate()   {}
func (Matches) isPredicate()    {}
func (Glob) isPredicate()       {}
func (Exists) isPredicate()     {}
func (*Expr) isPredicate()      {}
func (And) isPredicate()        {}
func (Or) isPredicate()         {}
func (Not) isPredicate()        {}
func (Any) isPredicate()        {}
