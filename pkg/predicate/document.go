package predicate

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/tidwall/gjson"

	"github.com/getmockd/mocket/pkg/message"
)

// JSONPath returns an extractor that parses the value produced by src as JSON
// and selects the first node matched by a JSONPath expression such as
// "$.user.name" or "$.items[0].id". String nodes are returned as-is; other
// nodes are returned in their JSON encoding.
func JSONPath(src Extractor, path string) (Extractor, error) {
	x, err := jp.ParseString(path)
	if err != nil {
		return Extractor{}, fmt.Errorf("%w: %q: %w", ErrInvalidPath, path, err)
	}

	return NewExtractor(src.name+".jsonpath("+path+")", func(msg message.Message) (Value, error) {
		raw, err := src.Extract(msg)
		if err != nil {
			return Value{}, err
		}
		data, err := oj.Parse(raw.Bytes())
		if err != nil {
			return Value{}, ErrNoValue
		}
		results := x.Get(data)
		if len(results) == 0 {
			return Value{}, ErrNoValue
		}
		if s, ok := results[0].(string); ok {
			return Text(s), nil
		}
		return Text(oj.JSON(results[0])), nil
	}), nil
}

// JSONField returns an extractor that selects a field from the JSON value
// produced by src using a dotted gjson path such as "event" or "data.id".
func JSONField(src Extractor, path string) Extractor {
	return NewExtractor(src.name+".field("+path+")", func(msg message.Message) (Value, error) {
		raw, err := src.Extract(msg)
		if err != nil {
			return Value{}, err
		}
		if !gjson.ValidBytes(raw.Bytes()) {
			return Value{}, ErrNoValue
		}
		res := gjson.GetBytes(raw.Bytes(), path)
		if !res.Exists() {
			return Value{}, ErrNoValue
		}
		return Text(res.String()), nil
	})
}

// XPath returns an extractor that parses the value produced by src as XML and
// selects the trimmed text of the first matching element, or an attribute
// value when the path ends in "/@name".
//
// Supported syntax is the etree path subset:
//   - /path/to/element
//   - //element
//   - /path/to/element[1]
//   - /path/to/element/@attr
func XPath(src Extractor, path string) (Extractor, error) {
	elemPath, attr := path, ""
	if i := strings.LastIndex(path, "/@"); i >= 0 {
		elemPath, attr = path[:i], path[i+2:]
	}
	compiled, err := etree.CompilePath(elemPath)
	if err != nil {
		return Extractor{}, fmt.Errorf("%w: %q: %w", ErrInvalidPath, path, err)
	}

	return NewExtractor(src.name+".xpath("+path+")", func(msg message.Message) (Value, error) {
		raw, err := src.Extract(msg)
		if err != nil {
			return Value{}, err
		}
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(raw.Bytes()); err != nil {
			return Value{}, ErrNoValue
		}
		elem := doc.FindElementPath(compiled)
		if elem == nil {
			return Value{}, ErrNoValue
		}
		if attr == "" {
			return Text(strings.TrimSpace(elem.Text())), nil
		}
		a := elem.SelectAttr(attr)
		if a == nil {
			return Value{}, ErrNoValue
		}
		return Text(a.Value), nil
	}), nil
}
