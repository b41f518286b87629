package predicate

import (
	"errors"
	"fmt"

	"github.com/getmockd/mocket/pkg/message"
)

// ExtractFunc pulls a value out of a message. It returns ErrNoValue when the
// message carries nothing to compare.
type ExtractFunc func(msg message.Message) (Value, error)

// Extractor is a named ExtractFunc.
type Extractor struct {
	name string
	fn   ExtractFunc
}

// NewExtractor returns a custom extractor.
func NewExtractor(name string, fn ExtractFunc) Extractor {
	return Extractor{name: name, fn: fn}
}

// Name returns the extractor name.
func (e Extractor) Name() string {
	return e.name
}

// Extract runs the extractor. Absence is reported as ErrNoValue. Any other
// failure, including a panic inside fn, is reported as *EvaluationError.
func (e Extractor) Extract(msg message.Message) (v Value, err error) {
	if e.fn == nil {
		return Value{}, &EvaluationError{Extractor: e.name, Err: errors.New("extractor has no function")}
	}
	defer func() {
		if r := recover(); r != nil {
			v = Value{}
			err = &EvaluationError{Extractor: e.name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	v, err = e.fn(msg)
	if err != nil && !errors.Is(err, ErrNoValue) {
		return Value{}, &EvaluationError{Extractor: e.name, Err: err}
	}
	return v, err
}

func request(msg message.Message) (*message.Request, error) {
	r, ok := msg.(*message.Request)
	if !ok || r == nil {
		return nil, ErrNoValue
	}
	return r, nil
}

func frame(msg message.Message) (*message.Frame, error) {
	f, ok := msg.(*message.Frame)
	if !ok || f == nil {
		return nil, ErrNoValue
	}
	return f, nil
}

// Method extracts the HTTP request method.
func Method() Extractor {
	return NewExtractor("method", func(msg message.Message) (Value, error) {
		r, err := request(msg)
		if err != nil {
			return Value{}, err
		}
		return Text(r.Method), nil
	})
}

// Path extracts the HTTP request path without its query string.
func Path() Extractor {
	return NewExtractor("path", func(msg message.Message) (Value, error) {
		r, err := request(msg)
		if err != nil {
			return Value{}, err
		}
		return Text(r.Path), nil
	})
}

// Query extracts the first value of the named query parameter.
func Query(name string) Extractor {
	return NewExtractor("query."+name, func(msg message.Message) (Value, error) {
		r, err := request(msg)
		if err != nil {
			return Value{}, err
		}
		vals, ok := r.Query[name]
		if !ok || len(vals) == 0 {
			return Value{}, ErrNoValue
		}
		return Text(vals[0]), nil
	})
}

// Header extracts the first value of the named request header.
func Header(name string) Extractor {
	return NewExtractor("header."+name, func(msg message.Message) (Value, error) {
		r, err := request(msg)
		if err != nil {
			return Value{}, err
		}
		vals := r.Header.Values(name)
		if len(vals) == 0 {
			return Value{}, ErrNoValue
		}
		return Text(vals[0]), nil
	})
}

// Cookie extracts the value of the named request cookie.
func Cookie(name string) Extractor {
	return NewExtractor("cookie."+name, func(msg message.Message) (Value, error) {
		r, err := request(msg)
		if err != nil {
			return Value{}, err
		}
		c, ok := r.Cookie(name)
		if !ok {
			return Value{}, ErrNoValue
		}
		return Text(c.Value), nil
	})
}

// Body extracts the HTTP request body. An empty body is a value, not absence.
func Body() Extractor {
	return NewExtractor("body", func(msg message.Message) (Value, error) {
		r, err := request(msg)
		if err != nil {
			return Value{}, err
		}
		return Bytes(r.Body), nil
	})
}

// Version extracts the canonical protocol version string, e.g. "HTTP/1.0".
// Every request carries a version, so it never reports absence for requests.
func Version() Extractor {
	return NewExtractor("version", func(msg message.Message) (Value, error) {
		r, err := request(msg)
		if err != nil {
			return Value{}, err
		}
		return Text(r.Version.String()), nil
	})
}

// FrameText extracts the payload of a text frame.
func FrameText() Extractor {
	return NewExtractor("frame.text", func(msg message.Message) (Value, error) {
		f, err := frame(msg)
		if err != nil || f.Type != message.KindText {
			return Value{}, ErrNoValue
		}
		return Text(string(f.Payload)), nil
	})
}

// FrameBinary extracts the payload of a binary frame.
func FrameBinary() Extractor {
	return NewExtractor("frame.binary", func(msg message.Message) (Value, error) {
		f, err := frame(msg)
		if err != nil || f.Type != message.KindBinary {
			return Value{}, ErrNoValue
		}
		return Bytes(f.Payload), nil
	})
}

// Payload extracts the payload of any text, binary or ping frame.
func Payload() Extractor {
	return NewExtractor("frame.payload", func(msg message.Message) (Value, error) {
		f, err := frame(msg)
		if err != nil {
			return Value{}, err
		}
		switch f.Type {
		case message.KindText:
			return Text(string(f.Payload)), nil
		case message.KindBinary, message.KindPing:
			return Bytes(f.Payload), nil
		default:
			return Value{}, ErrNoValue
		}
	})
}
