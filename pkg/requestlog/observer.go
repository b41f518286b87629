package requestlog

import (
	"github.com/getmockd/mocket/pkg/message"
	"github.com/getmockd/mocket/pkg/session"
)

// Observer records every exchange into a Logger.
type Observer struct {
	logger Logger
}

var _ session.Observer = (*Observer)(nil)

// NewObserver returns an Observer writing to logger.
func NewObserver(logger Logger) *Observer {
	return &Observer{logger: logger}
}

// Observe implements session.Observer.
func (o *Observer) Observe(sc *session.Context) {
	if o == nil || o.logger == nil || sc == nil {
		return
	}
	o.logger.Log(NewEntry(sc))
}

// NewEntry converts a finished exchange into an Entry.
func NewEntry(sc *session.Context) *Entry {
	e := &Entry{
		SessionID:      sc.ID,
		Timestamp:      sc.StartedAt,
		Channel:        string(sc.Channel),
		MatchedSetupID: sc.SetupID,
		DurationMs:     int(sc.Duration.Milliseconds()),
	}

	switch m := sc.Message.(type) {
	case *message.Request:
		e.Protocol = ProtocolHTTP
		e.Method = m.Method
		e.Path = m.Path
		if len(m.Query) > 0 {
			e.QueryString = m.Query.Encode()
		}
		e.Headers = m.Header.Clone()
		e.Body = truncate(m.Body)
		e.BodySize = len(m.Body)
		e.RemoteAddr = m.RemoteAddr
	case *message.Frame:
		e.Protocol = ProtocolWebSocket
		e.Body = truncate(m.Payload)
		e.BodySize = len(m.Payload)
		e.WebSocket = &WebSocketMeta{
			ConnectionID: string(sc.ConnectionID),
			MessageType:  m.Kind().String(),
		}
	}

	if c := sc.Content; c != nil {
		e.ResponseStatus = c.Status
		if c.HasBody() {
			e.ResponseBody = truncate(c.Body)
		}
		if c.HasPong() && e.WebSocket != nil {
			e.WebSocket.Pong = truncate(c.Pong)
		}
	}
	if f := sc.Failure; f != nil {
		e.FailureKind = string(f.Kind)
		e.Error = f.Error()
		e.ErrorType = f.ErrorType
	} else if e.Protocol == ProtocolHTTP && e.ResponseStatus == 0 {
		e.ResponseStatus = 200
	}
	return e
}
