package state

import "sort"

// usersIn derives the sorted identities of a room's identified members.
// Members without an identity stay in the room but are not listed.
func usersIn(rooms *Directory, conns *Registry, room string) []string {
	users := []string{}
	for _, id := range rooms.Members(room) {
		record, ok := conns.Get(id)
		if !ok || !record.Identified() {
			continue
		}
		users = append(users, record.Identity)
	}
	sort.Strings(users)
	return users
}
