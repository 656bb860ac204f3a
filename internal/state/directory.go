package state

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// DefaultRoom always exists and is never deleted.
const DefaultRoom = "#general"

// NormalizeRoom maps user input to the canonical room name: trimmed,
// lower-cased, internal whitespace runs collapsed to single hyphens and
// prefixed with '#'. It reports false when nothing usable remains.
func NormalizeRoom(raw string) (string, bool) {
	name := strings.Join(strings.Fields(strings.ToLower(raw)), "-")
	if name == "" {
		return "", false
	}
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	if name == "#" {
		return "", false
	}
	return name, true
}

// Room is a named broadcast group.
type Room struct {
	name    string
	members map[uuid.UUID]struct{}
}

func newRoom(name string) *Room {
	return &Room{name: name, members: make(map[uuid.UUID]struct{})}
}

// Name returns the canonical room name.
func (r *Room) Name() string { return r.name }

// Len returns the number of member connections, identified or not.
func (r *Room) Len() int { return len(r.members) }

// Directory owns the set of rooms. It is not safe for concurrent use on its
// own; State serialises access to it.
type Directory struct {
	rooms map[string]*Room
}

// NewDirectory returns a directory holding only the default room.
func NewDirectory() *Directory {
	d := &Directory{rooms: make(map[string]*Room)}
	d.Ensure(DefaultRoom)
	return d
}

// Ensure returns the named room, creating and registering it if needed.
func (d *Directory) Ensure(name string) *Room {
	if room, ok := d.rooms[name]; ok {
		return room
	}
	room := newRoom(name)
	d.rooms[name] = room
	return room
}

// Get looks up an existing room.
func (d *Directory) Get(name string) (*Room, bool) {
	room, ok := d.rooms[name]
	return room, ok
}

// RemoveIfEmpty deletes a non-default room with no members and reports
// whether it did.
func (d *Directory) RemoveIfEmpty(name string) bool {
	if name == DefaultRoom {
		return false
	}
	room, ok := d.rooms[name]
	if !ok || room.Len() > 0 {
		return false
	}
	delete(d.rooms, name)
	return true
}

// List returns every room name in lexicographic order.
func (d *Directory) List() []string {
	names := make([]string, 0, len(d.rooms)+1)
	hasDefault := false
	for name := range d.rooms {
		if name == DefaultRoom {
			hasDefault = true
		}
		names = append(names, name)
	}
	if !hasDefault {
		names = append(names, DefaultRoom)
	}
	sort.Strings(names)
	return names
}

// Members returns the ids of every connection in the room.
func (d *Directory) Members(name string) []uuid.UUID {
	room, ok := d.rooms[name]
	if !ok {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(room.members))
	for id := range room.members {
		ids = append(ids, id)
	}
	return ids
}

func (d *Directory) add(name string, id uuid.UUID) {
	d.Ensure(name).members[id] = struct{}{}
}

func (d *Directory) remove(name string, id uuid.UUID) {
	if room, ok := d.rooms[name]; ok {
		delete(room.members, id)
	}
}
