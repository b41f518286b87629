package mockettest

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getmockd/mocket/pkg/requestlog"
)

// AssertJSONBody asserts that the recorded body is JSON equal to expected.
// expected may be a string, []byte or any value that encodes to JSON.
func AssertJSONBody(t testing.TB, e *requestlog.Entry, expected any) bool {
	t.Helper()
	var want string
	switch v := expected.(type) {
	case string:
		want = v
	case []byte:
		want = string(v)
	default:
		data, err := json.Marshal(v)
		if !assert.NoError(t, err, "encoding expected body") {
			return false
		}
		want = string(data)
	}
	return assert.JSONEq(t, want, e.Body)
}

// AssertHeader asserts a request header value.
func AssertHeader(t testing.TB, e *requestlog.Entry, name, expected string) bool {
	t.Helper()
	return assert.Equal(t, expected, http.Header(e.Headers).Get(name), "header %s", name)
}

// AssertQueryParam asserts a query parameter value.
func AssertQueryParam(t testing.TB, e *requestlog.Entry, name, expected string) bool {
	t.Helper()
	q, err := url.ParseQuery(e.QueryString)
	if !assert.NoError(t, err, "parsing query string") {
		return false
	}
	return assert.Equal(t, expected, q.Get(name), "query parameter %s", name)
}
