package runtime

import (
	"sync"

	"chat-relay/contract"
)

type memberSet map[string]contract.Member

// Registry owns the mapping from room name to the set of currently
// connected members. A room exists the instant its first member joins and
// is removed the instant its last member leaves, so an emptied room is
// indistinguishable from one that never existed.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]memberSet
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]memberSet)}
}

// Join adds m to the room's member set, creating the room if absent.
// Joining a room the member is already in is a no-op.
func (r *Registry) Join(room string, m contract.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(memberSet)
		r.rooms[room] = members
	}
	members[m.ID()] = m
}

// Leave removes m from the room's member set. Removing an absent member or
// an absent room is a no-op, which covers double disconnects.
// The room entry is dropped once the last member leaves, so no empty sets
// accumulate over time.
func (r *Registry) Leave(room string, m contract.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, m.ID())
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// Members returns a point-in-time snapshot of the room's member set, the
// view a fan-out iterates over. Members joining after the snapshot was
// taken are not part of it. Returns nil if the room doesn't exist.
func (r *Registry) Members(room string) []contract.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil
	}
	snapshot := make([]contract.Member, 0, len(members))
	for _, m := range members {
		snapshot = append(snapshot, m)
	}
	return snapshot
}

// Rooms reports the number of rooms currently holding members.
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
