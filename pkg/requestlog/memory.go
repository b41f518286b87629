package requestlog

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a SubscribableStore backed by a bounded FIFO buffer.
type MemoryStore struct {
	entries     []*Entry
	maxEntries  int
	nextID      int64
	mu          sync.RWMutex
	subscribers map[Subscriber]struct{}
	subMu       sync.RWMutex
}

var _ SubscribableStore = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding at most maxEntries entries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &MemoryStore{
		entries:     make([]*Entry, 0, maxEntries),
		maxEntries:  maxEntries,
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Log records an entry, evicting the oldest at capacity.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}

	s.mu.Lock()
	if entry.ID == "" {
		s.nextID++
		entry.ID = "req-" + strconv.FormatInt(s.nextID, 36)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Protocol == "" {
		entry.Protocol = ProtocolHTTP
	}
	if len(s.entries) >= s.maxEntries {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.subMu.RLock()
	for sub := range s.subscribers {
		select {
		case sub <- entry:
		default:
			// Drop if subscriber is slow
		}
	}
	s.subMu.RUnlock()
}

// Get retrieves a log entry by ID.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// List returns entries newest first.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter != nil && !filter.matches(entry) {
			continue
		}
		result = append(result, entry)
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}
	return result
}

func (f *Filter) matches(entry *Entry) bool {
	if f.Protocol != "" && entry.Protocol != f.Protocol {
		return false
	}
	if f.Channel != "" && entry.Channel != f.Channel {
		return false
	}
	if f.Method != "" && entry.Method != f.Method {
		return false
	}
	if f.Path != "" && !strings.HasPrefix(entry.Path, f.Path) {
		return false
	}
	if f.MatchedID != "" && entry.MatchedSetupID != f.MatchedID {
		return false
	}
	if f.StatusCode != 0 && entry.ResponseStatus != f.StatusCode {
		return false
	}
	if f.HasError != nil && *f.HasError != (entry.Error != "") {
		return false
	}
	if f.WSConnectionID != "" {
		if entry.WebSocket == nil || entry.WebSocket.ConnectionID != f.WSConnectionID {
			return false
		}
	}
	return true
}

// Clear removes all log entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]*Entry, 0, s.maxEntries)
}

// Count returns the number of log entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe registers a subscriber to receive new log entries.
func (s *MemoryStore) Subscribe() (Subscriber, func()) {
	ch := make(Subscriber, 100)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, ch)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}
