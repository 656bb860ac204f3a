package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attach(t *testing.T, s *State, identity string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := s.Attach(Connection{ID: id, Identity: identity})
	require.NoError(t, err)
	return id
}

func TestNormalizeRoom(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{raw: "games", want: "#games", valid: true},
		{raw: "  New   Room ", want: "#new-room", valid: true},
		{raw: "#General", want: "#general", valid: true},
		{raw: "a\tb\nc", want: "#a-b-c", valid: true},
		{raw: "##x", want: "##x", valid: true},
		{raw: "", valid: false},
		{raw: "   ", valid: false},
		{raw: "#", valid: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			got, ok := NormalizeRoom(tt.raw)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirectoryDefaultRoomSurvives(t *testing.T) {
	d := NewDirectory()

	assert.False(t, d.RemoveIfEmpty(DefaultRoom))
	assert.Equal(t, []string{DefaultRoom}, d.List())

	room := d.Ensure("#games")
	assert.Same(t, room, d.Ensure("#games"), "ensure must not create duplicates")
	assert.Equal(t, []string{"#games", DefaultRoom}, d.List())

	assert.True(t, d.RemoveIfEmpty("#games"))
	assert.False(t, d.RemoveIfEmpty("#games"))
	assert.Equal(t, []string{DefaultRoom}, d.List())
}

func TestDirectoryKeepsOccupiedRooms(t *testing.T) {
	d := NewDirectory()
	id := uuid.New()
	d.add("#busy", id)

	assert.False(t, d.RemoveIfEmpty("#busy"))
	assert.Equal(t, []uuid.UUID{id}, d.Members("#busy"))

	d.remove("#busy", id)
	assert.True(t, d.RemoveIfEmpty("#busy"))
	assert.Nil(t, d.Members("#busy"))
}

func TestAttachAndDetach(t *testing.T) {
	s := New()
	id := uuid.New()

	record, err := s.Attach(Connection{ID: id, Identity: "alice"})
	require.NoError(t, err)
	assert.Equal(t, DefaultRoom, record.Room)
	assert.Equal(t, []uuid.UUID{id}, s.Members(DefaultRoom))

	_, err = s.Attach(Connection{ID: id})
	assert.ErrorIs(t, err, ErrAlreadyAttached)

	old, ok := s.Detach(id)
	require.True(t, ok)
	assert.Equal(t, "alice", old.Identity)
	assert.Empty(t, s.Members(DefaultRoom))
	assert.True(t, s.HasRoom(DefaultRoom))

	_, ok = s.Detach(id)
	assert.False(t, ok, "second detach must be a no-op")
}

func TestAttachRejectsNonCanonicalRoom(t *testing.T) {
	s := New()
	_, err := s.Attach(Connection{ID: uuid.New(), Room: "Games"})
	assert.ErrorIs(t, err, ErrInvalidRoom)
	assert.Equal(t, 0, s.ConnectionCount())
}

func TestMoveDeletesEmptiedRoom(t *testing.T) {
	s := New()
	a := attach(t, s, "A")

	from, err := s.Move(a, "#games")
	require.NoError(t, err)
	assert.Equal(t, DefaultRoom, from)
	assert.Equal(t, []string{"#games", DefaultRoom}, s.Rooms())

	from, err = s.Move(a, "#chess")
	require.NoError(t, err)
	assert.Equal(t, "#games", from)
	assert.Equal(t, []string{"#chess", DefaultRoom}, s.Rooms())

	record, ok := s.Connection(a)
	require.True(t, ok)
	assert.Equal(t, "#chess", record.Room)
}

func TestMoveIntoCurrentRoomIsNoop(t *testing.T) {
	s := New()
	a := attach(t, s, "A")

	from, err := s.Move(a, DefaultRoom)
	require.NoError(t, err)
	assert.Equal(t, DefaultRoom, from)
	assert.Equal(t, []uuid.UUID{a}, s.Members(DefaultRoom))
}

func TestMoveErrors(t *testing.T) {
	s := New()
	_, err := s.Move(uuid.New(), "#games")
	assert.ErrorIs(t, err, ErrUnknownConnection)

	a := attach(t, s, "A")
	_, err = s.Move(a, "not canonical")
	assert.ErrorIs(t, err, ErrInvalidRoom)
}

func TestUsersInSkipsAnonymousMembers(t *testing.T) {
	s := New()
	attach(t, s, "carol")
	attach(t, s, "")
	attach(t, s, "Bob")
	attach(t, s, "alice")

	assert.Equal(t, []string{"Bob", "alice", "carol"}, s.UsersIn(DefaultRoom))
	assert.Len(t, s.Members(DefaultRoom), 4)
	assert.Equal(t, []string{}, s.UsersIn("#nowhere"))
}

func TestIdentityLifecycle(t *testing.T) {
	s := New()
	a := attach(t, s, "")

	old, err := s.SetIdentity(a, "alice")
	require.NoError(t, err)
	assert.Empty(t, old)
	assert.Equal(t, []string{"alice"}, s.UsersIn(DefaultRoom))

	old, err = s.SetIdentity(a, "alicia")
	require.NoError(t, err)
	assert.Equal(t, "alice", old)

	old, err = s.ClearIdentity(a)
	require.NoError(t, err)
	assert.Equal(t, "alicia", old)
	assert.Empty(t, s.UsersIn(DefaultRoom))

	_, err = s.SetIdentity(uuid.New(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownConnection)
}

func TestSnapshot(t *testing.T) {
	s := New()
	a := attach(t, s, "A")
	attach(t, s, "")
	_, err := s.Move(a, "#games")
	require.NoError(t, err)

	assert.Equal(t, []RoomInfo{
		{Name: "#games", Members: 1, Users: []string{"A"}},
		{Name: DefaultRoom, Members: 1, Users: []string{}},
	}, s.Snapshot())
}

func TestConcurrentJoinsShareOneRoom(t *testing.T) {
	s := New()
	const workers = 32

	ids := make([]uuid.UUID, workers)
	for i := range ids {
		ids[i] = attach(t, s, fmt.Sprintf("user-%02d", i))
	}

	room, ok := NormalizeRoom("new room")
	require.True(t, ok)

	var wg sync.WaitGroup
	wg.Add(workers)
	for _, id := range ids {
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := s.Move(id, room)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, []string{DefaultRoom, "#new-room"}, s.Rooms())
	assert.Len(t, s.Members("#new-room"), workers)
	assert.Empty(t, s.Members(DefaultRoom))
}

func TestConcurrentMovesKeepSingleMembership(t *testing.T) {
	s := New()
	rooms := []string{"#a", "#b", "#c"}
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		ids[i] = attach(t, s, fmt.Sprintf("u%d", i))
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				_, _ = s.Move(id, rooms[(i+n)%len(rooms)])
			}
		}(i, id)
	}
	wg.Wait()

	total := 0
	for _, name := range s.Rooms() {
		total += len(s.Members(name))
	}
	assert.Equal(t, len(ids), total, "every connection must be in exactly one room")
}
