package group

import (
	"slices"
	"sync"
)

// ConnID identifies a live connection.
type ConnID string

type connection struct {
	groups map[string]struct{}
}

// State holds every live connection and group membership.
type State struct {
	conns  map[ConnID]*connection
	groups map[string]map[ConnID]struct{}

	mu sync.Mutex
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		conns:  make(map[ConnID]*connection),
		groups: make(map[string]map[ConnID]struct{}),
	}
}

// Register marks id as live. Registering an already live id is a no-op.
func (s *State) Register(id ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conns[id]; ok {
		return
	}
	s.conns[id] = &connection{groups: make(map[string]struct{})}
}

// Unregister removes id from every group it joined and forgets it. It reports
// whether id was live.
func (s *State) Unregister(id ConnID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[id]
	if !ok {
		return false
	}
	for name := range c.groups {
		s.removeMemberLocked(name, id)
	}
	delete(s.conns, id)
	return true
}

// Join adds id to the named group, creating the group if needed. Joining a
// group twice leaves membership unchanged.
func (s *State) Join(id ConnID, name string) error {
	if name == "" {
		return ErrEmptyGroupName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[id]
	if !ok {
		return ErrConnectionNotFound
	}
	if _, ok := c.groups[name]; ok {
		if _, indexed := s.groups[name][id]; !indexed {
			panic(&ConflictError{Conn: id, Group: name, Detail: "member missing from group index"})
		}
		return nil
	}

	c.groups[name] = struct{}{}
	members := s.groups[name]
	if members == nil {
		members = make(map[ConnID]struct{})
		s.groups[name] = members
	}
	members[id] = struct{}{}
	return nil
}

// Leave removes id from the named group. It reports whether id was a member.
func (s *State) Leave(id ConnID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[id]
	if !ok {
		return false
	}
	if _, ok := c.groups[name]; !ok {
		return false
	}
	delete(c.groups, name)
	s.removeMemberLocked(name, id)
	return true
}

func (s *State) removeMemberLocked(name string, id ConnID) {
	members, ok := s.groups[name]
	if !ok {
		panic(&ConflictError{Conn: id, Group: name, Detail: "group missing from group index"})
	}
	if _, ok := members[id]; !ok {
		panic(&ConflictError{Conn: id, Group: name, Detail: "member missing from group index"})
	}
	delete(members, id)
	if len(members) == 0 {
		delete(s.groups, name)
	}
}

// MembersOf returns a sorted snapshot of the group's live members. Unknown
// groups have no members.
func (s *State) MembersOf(name string) []ConnID {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.groups[name]
	ids := make([]ConnID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AllLive returns a sorted snapshot of every live connection.
func (s *State) AllLive() []ConnID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]ConnID, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// GroupsOf returns the sorted names of the groups id has joined.
func (s *State) GroupsOf(id ConnID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[id]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(c.groups))
	for name := range c.groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Groups returns the sorted names of all non-empty groups.
func (s *State) Groups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of live connections.
func (s *State) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
