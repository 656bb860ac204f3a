// Package state holds the process-wide room and connection state of the
// chat server.
//
// State is constructed once at startup and handed to every component that
// needs it. A single RWMutex guards both the room Directory and the
// connection Registry, so every method below observes and leaves behind a
// consistent view: a connection is in exactly one room, empty non-default
// rooms do not exist, and the default room always does.
package state

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// RoomInfo is a point-in-time description of one room.
type RoomInfo struct {
	Name    string   `json:"name"`
	Members int      `json:"members"`
	Users   []string `json:"users"`
}

// State is the single owner of rooms and connection records.
type State struct {
	mu    sync.RWMutex
	rooms *Directory
	conns *Registry
}

// New returns a State containing only the default room.
func New() *State {
	rooms := NewDirectory()
	return &State{
		rooms: rooms,
		conns: NewRegistry(rooms),
	}
}

// Attach registers conn in conn.Room, or in the default room when empty.
func (s *State) Attach(conn Connection) (Connection, error) {
	room := conn.Room
	if room == "" {
		room = DefaultRoom
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conns.Attach(conn, room); err != nil {
		return Connection{}, err
	}
	record, _ := s.conns.Get(conn.ID)
	return record, nil
}

// Detach removes a connection and returns its last record. Repeated calls
// report false.
func (s *State) Detach(id uuid.UUID) (Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns.Detach(id)
}

// Move transfers a connection into room and returns the room it left.
func (s *State) Move(id uuid.UUID, room string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns.Move(id, room)
}

// SetIdentity assigns a display name and returns the previous one.
func (s *State) SetIdentity(id uuid.UUID, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns.SetIdentity(id, name)
}

// ClearIdentity drops the display name and returns the previous one.
func (s *State) ClearIdentity(id uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns.ClearIdentity(id)
}

// Connection returns a copy of the record for id.
func (s *State) Connection(id uuid.UUID) (Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns.Get(id)
}

// ConnectionIDs lists every attached connection.
func (s *State) ConnectionIDs() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns.IDs()
}

// ConnectionCount returns the number of attached connections.
func (s *State) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns.Len()
}

// Members lists the connections currently in room.
func (s *State) Members(room string) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms.Members(room)
}

// UsersIn returns the sorted identities of the identified members of room.
func (s *State) UsersIn(room string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return usersIn(s.rooms, s.conns, room)
}

// Rooms returns all room names in lexicographic order.
func (s *State) Rooms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms.List()
}

// HasRoom reports whether room currently exists.
func (s *State) HasRoom(room string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms.Get(room)
	return ok
}

// Snapshot describes every room, sorted by name.
func (s *State) Snapshot() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := s.rooms.List()
	infos := make([]RoomInfo, 0, len(names))
	for _, name := range names {
		info := RoomInfo{Name: name, Users: usersIn(s.rooms, s.conns, name)}
		if room, ok := s.rooms.Get(name); ok {
			info.Members = room.Len()
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
