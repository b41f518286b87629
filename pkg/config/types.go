package config

// File is one mock file.
type File struct {
	HTTP      []HTTPSetup      `yaml:"http,omitempty" json:"http,omitempty"`
	WebSocket *WebSocketConfig `yaml:"websocket,omitempty" json:"websocket,omitempty"`
}

// HTTPSetup pairs a request match with a response. A nil Request is a
// catch-all.
type HTTPSetup struct {
	ID       string        `yaml:"id,omitempty" json:"id,omitempty"`
	Request  *RequestMatch `yaml:"request,omitempty" json:"request,omitempty"`
	Response ResponseDef   `yaml:"response" json:"response"`
}

// TextMatch describes conditions on one extracted value. All set conditions
// must hold.
type TextMatch struct {
	Equals     *string `yaml:"equals,omitempty" json:"equals,omitempty"`
	Contains   string  `yaml:"contains,omitempty" json:"contains,omitempty"`
	StartsWith string  `yaml:"startsWith,omitempty" json:"startsWith,omitempty"`
	EndsWith   string  `yaml:"endsWith,omitempty" json:"endsWith,omitempty"`
	Pattern    string  `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Glob       string  `yaml:"glob,omitempty" json:"glob,omitempty"`
	Exists     *bool   `yaml:"exists,omitempty" json:"exists,omitempty"`
}

// RequestMatch describes an HTTP request. All set fields must match.
type RequestMatch struct {
	Method      string               `yaml:"method,omitempty" json:"method,omitempty"`
	Path        string               `yaml:"path,omitempty" json:"path,omitempty"`
	PathMatch   *TextMatch           `yaml:"pathMatch,omitempty" json:"pathMatch,omitempty"`
	Version     string               `yaml:"version,omitempty" json:"version,omitempty"`
	Headers     map[string]string    `yaml:"headers,omitempty" json:"headers,omitempty"`
	QueryParams map[string]string    `yaml:"queryParams,omitempty" json:"queryParams,omitempty"`
	Cookies     map[string]string    `yaml:"cookies,omitempty" json:"cookies,omitempty"`
	Body        *TextMatch           `yaml:"body,omitempty" json:"body,omitempty"`
	JSONPaths   map[string]TextMatch `yaml:"jsonPaths,omitempty" json:"jsonPaths,omitempty"`
	JSONFields  map[string]string    `yaml:"jsonFields,omitempty" json:"jsonFields,omitempty"`
	XPaths      map[string]string    `yaml:"xpaths,omitempty" json:"xpaths,omitempty"`
	Expr        string               `yaml:"expr,omitempty" json:"expr,omitempty"`
	AnyOf       []RequestMatch       `yaml:"anyOf,omitempty" json:"anyOf,omitempty"`
	Not         *RequestMatch        `yaml:"not,omitempty" json:"not,omitempty"`
}

// ResponseDef describes an HTTP response.
type ResponseDef struct {
	Status  int               `yaml:"status,omitempty" json:"status,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Cookies []CookieDef       `yaml:"cookies,omitempty" json:"cookies,omitempty"`
	Body    `yaml:",inline" json:",inline"`
}

// Body is a response or frame payload. At most one field may be set.
type Body struct {
	Text   *string `yaml:"text,omitempty" json:"text,omitempty"`
	Binary string  `yaml:"binary,omitempty" json:"binary,omitempty"`
	JSON   any     `yaml:"json,omitempty" json:"json,omitempty"`
	File   string  `yaml:"file,omitempty" json:"file,omitempty"`
}

// CookieDef describes a response cookie.
type CookieDef struct {
	Name     string `yaml:"name" json:"name"`
	Value    string `yaml:"value" json:"value"`
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	Domain   string `yaml:"domain,omitempty" json:"domain,omitempty"`
	MaxAge   string `yaml:"maxAge,omitempty" json:"maxAge,omitempty"`
	Secure   bool   `yaml:"secure,omitempty" json:"secure,omitempty"`
	HTTPOnly bool   `yaml:"httpOnly,omitempty" json:"httpOnly,omitempty"`
	SameSite string `yaml:"sameSite,omitempty" json:"sameSite,omitempty"`
}

// WebSocketConfig describes the WebSocket endpoint.
type WebSocketConfig struct {
	Path     string         `yaml:"path,omitempty" json:"path,omitempty"`
	Connect  *FrameResponse `yaml:"connect,omitempty" json:"connect,omitempty"`
	Messages []MessageSetup `yaml:"messages,omitempty" json:"messages,omitempty"`
	Pings    []PingSetup    `yaml:"pings,omitempty" json:"pings,omitempty"`
}

// MessageSetup pairs a frame match with a response. A nil Match is a
// catch-all.
type MessageSetup struct {
	ID       string        `yaml:"id,omitempty" json:"id,omitempty"`
	Match    *FrameMatch   `yaml:"match,omitempty" json:"match,omitempty"`
	Response FrameResponse `yaml:"response" json:"response"`
}

// FrameMatch describes an inbound frame. All set fields must match.
type FrameMatch struct {
	Text       *TextMatch           `yaml:"text,omitempty" json:"text,omitempty"`
	Binary     string               `yaml:"binary,omitempty" json:"binary,omitempty"`
	JSONPaths  map[string]TextMatch `yaml:"jsonPaths,omitempty" json:"jsonPaths,omitempty"`
	JSONFields map[string]string    `yaml:"jsonFields,omitempty" json:"jsonFields,omitempty"`
	XPaths     map[string]string    `yaml:"xpaths,omitempty" json:"xpaths,omitempty"`
	Expr       string               `yaml:"expr,omitempty" json:"expr,omitempty"`
	AnyOf      []FrameMatch         `yaml:"anyOf,omitempty" json:"anyOf,omitempty"`
	Not        *FrameMatch          `yaml:"not,omitempty" json:"not,omitempty"`
}

// FrameResponse describes what a frame or connection triggers: joining a
// group, a direct reply, and a broadcast.
type FrameResponse struct {
	Join      string        `yaml:"join,omitempty" json:"join,omitempty"`
	Broadcast *BroadcastDef `yaml:"broadcast,omitempty" json:"broadcast,omitempty"`
	Body      `yaml:",inline" json:",inline"`
}

// BroadcastDef describes a broadcast. An empty Group targets every live
// connection.
type BroadcastDef struct {
	Group string `yaml:"group,omitempty" json:"group,omitempty"`
	Body  `yaml:",inline" json:",inline"`
}

// PingSetup pairs a ping payload match with a pong payload. A nil Payload is
// a catch-all.
type PingSetup struct {
	ID      string     `yaml:"id,omitempty" json:"id,omitempty"`
	Payload *TextMatch `yaml:"payload,omitempty" json:"payload,omitempty"`
	Pong    string     `yaml:"pong" json:"pong"`
}
