package state

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownConnection is returned for ids that are not attached.
	ErrUnknownConnection = errors.New("unknown connection")
	// ErrAlreadyAttached is returned when an id is attached twice.
	ErrAlreadyAttached = errors.New("connection already attached")
	// ErrInvalidRoom is returned for room names that are not canonical.
	ErrInvalidRoom = errors.New("invalid room name")
)

// Connection is the registry's record of one attached transport session.
// The transport itself is referenced by ID only.
type Connection struct {
	ID         uuid.UUID
	Identity   string
	Room       string
	Addr       string
	AttachedAt time.Time
}

// Identified reports whether the connection has a display name.
func (c Connection) Identified() bool {
	return c.Identity != ""
}

// Registry owns connection records and keeps room membership in step with
// each record's current room. Like Directory it relies on State for locking.
type Registry struct {
	conns map[uuid.UUID]*Connection
	rooms *Directory
}

// NewRegistry creates an empty registry bound to rooms.
func NewRegistry(rooms *Directory) *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]*Connection),
		rooms: rooms,
	}
}

// Attach registers conn and adds it to room.
func (r *Registry) Attach(conn Connection, room string) error {
	if _, exists := r.conns[conn.ID]; exists {
		return ErrAlreadyAttached
	}
	if canonical, ok := NormalizeRoom(room); !ok || canonical != room {
		return ErrInvalidRoom
	}

	record := conn
	record.Room = room
	r.conns[conn.ID] = &record
	r.rooms.add(room, conn.ID)
	return nil
}

// Detach removes the connection and drops its room if that leaves it empty.
// A second detach for the same id is a no-op reporting false.
func (r *Registry) Detach(id uuid.UUID) (Connection, bool) {
	record, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	delete(r.conns, id)
	r.rooms.remove(record.Room, id)
	r.rooms.RemoveIfEmpty(record.Room)
	return *record, true
}

// Move transfers the connection to room in one step and returns the room it
// left. Moving into the current room changes nothing.
func (r *Registry) Move(id uuid.UUID, room string) (string, error) {
	record, ok := r.conns[id]
	if !ok {
		return "", ErrUnknownConnection
	}
	if canonical, valid := NormalizeRoom(room); !valid || canonical != room {
		return "", ErrInvalidRoom
	}

	from := record.Room
	if from == room {
		return from, nil
	}

	r.rooms.add(room, id)
	r.rooms.remove(from, id)
	record.Room = room
	r.rooms.RemoveIfEmpty(from)
	return from, nil
}

// SetIdentity assigns a display name and returns the previous one.
func (r *Registry) SetIdentity(id uuid.UUID, name string) (string, error) {
	record, ok := r.conns[id]
	if !ok {
		return "", ErrUnknownConnection
	}
	old := record.Identity
	record.Identity = name
	return old, nil
}

// ClearIdentity removes the display name and returns the previous one.
func (r *Registry) ClearIdentity(id uuid.UUID) (string, error) {
	return r.SetIdentity(id, "")
}

// Get returns a copy of the connection record.
func (r *Registry) Get(id uuid.UUID) (Connection, bool) {
	record, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *record, true
}

// IDs returns every attached connection id.
func (r *Registry) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of attached connections.
func (r *Registry) Len() int {
	return len(r.conns)
}
