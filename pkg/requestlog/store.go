package requestlog

// Logger is the minimal interface for recording entries.
type Logger interface {
	Log(entry *Entry)
}

// Store defines the interface for request history storage.
type Store interface {
	Logger

	// Get retrieves a log entry by ID.
	Get(id string) *Entry

	// List returns log entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all log entries.
	Clear()

	// Count returns the number of log entries.
	Count() int
}

// Filter defines criteria for filtering request logs.
type Filter struct {
	// Protocol filters by protocol (http, websocket).
	Protocol string

	// Channel filters by dispatch channel.
	Channel string

	// Method filters by HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// MatchedID filters by matched setup ID.
	MatchedID string

	// StatusCode filters by response status code.
	StatusCode int

	// HasError filters by error presence.
	HasError *bool

	// WSConnectionID filters WebSocket entries by connection ID.
	WSConnectionID string

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

// Subscriber is a channel that receives new log entries.
type Subscriber chan *Entry

// SubscribableStore extends Store with subscription support.
type SubscribableStore interface {
	Store

	// Subscribe registers a subscriber to receive new log entries.
	// Returns a channel that will receive entries and an unsubscribe function.
	Subscribe() (Subscriber, func())
}
