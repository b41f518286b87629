// Package httpmock is the HTTP transport of the mock server.
//
// Handler decodes each request into a message.Request, dispatches it on the
// http channel and writes the resolved status, headers, cookies and body. A
// request no setup claims gets 404. When a resolver fails the handler aborts
// the connection with http.ErrAbortHandler, so the client observes a broken
// exchange rather than a fabricated response.
package httpmock
