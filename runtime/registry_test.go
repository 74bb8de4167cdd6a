package runtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type memberStub struct {
	id string
}

func (m memberStub) ID() string        { return m.id }
func (m memberStub) Send(string) error { return nil }
func (m memberStub) Close() error      { return nil }

func TestRegistry_Join_One_Room_One_Member(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := memberStub{id: "alice-1"}

	// Given no member is connected
	req.Zero(registry.Rooms())
	req.Nil(registry.Members("lobby"))

	// When a member joins a room
	registry.Join("lobby", alice)

	// Then the room exists with exactly that member
	req.Equal(1, registry.Rooms())
	req.Len(registry.Members("lobby"), 1)
	req.Contains(registry.Members("lobby"), alice)
}

func TestRegistry_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := memberStub{id: "alice-1"}

	registry.Join("lobby", alice)
	registry.Join("lobby", alice)

	req.Len(registry.Members("lobby"), 1)
}

func TestRegistry_Same_Identity_Holds_Multiple_Handles(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Two tabs of the same user carry distinct session identifiers
	registry.Join("lobby", memberStub{id: "alice-tab-1"})
	registry.Join("lobby", memberStub{id: "alice-tab-2"})

	req.Len(registry.Members("lobby"), 2)
}

func TestRegistry_Leave_Removes_Empty_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := memberStub{id: "alice-1"}
	bob := memberStub{id: "bob-1"}

	registry.Join("lobby", alice)
	registry.Join("lobby", bob)

	// When one member leaves, the room survives
	registry.Leave("lobby", alice)
	req.Len(registry.Members("lobby"), 1)
	req.Contains(registry.Members("lobby"), bob)

	// When the last member leaves, the room is indistinguishable from one
	// that never existed
	registry.Leave("lobby", bob)
	req.Zero(registry.Rooms())
	req.Nil(registry.Members("lobby"))
}

func TestRegistry_Leave_Twice_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := memberStub{id: "alice-1"}
	bob := memberStub{id: "bob-1"}

	registry.Join("lobby", alice)
	registry.Join("lobby", bob)

	// Double disconnect must not error or disturb other members
	registry.Leave("lobby", alice)
	registry.Leave("lobby", alice)
	registry.Leave("ghost-room", alice)

	req.Len(registry.Members("lobby"), 1)
}

func TestRegistry_Members_Is_A_Snapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := memberStub{id: "alice-1"}

	registry.Join("lobby", alice)
	snapshot := registry.Members("lobby")

	// Mutations after the snapshot don't affect it
	registry.Leave("lobby", alice)
	req.Len(snapshot, 1)
	req.Nil(registry.Members("lobby"))
}

func TestRegistry_No_Lost_Updates_Under_Concurrent_Join_Leave(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	const members = 100
	var wg sync.WaitGroup

	// Concurrent joins on the same room and on unrelated rooms
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			registry.Join("lobby", memberStub{id: fmt.Sprintf("member-%d", i)})
			registry.Join(fmt.Sprintf("room-%d", i), memberStub{id: fmt.Sprintf("solo-%d", i)})
		}(i)
	}
	wg.Wait()

	req.Len(registry.Members("lobby"), members)
	req.Equal(members+1, registry.Rooms())

	// Concurrent leaves drain everything without losing an update
	for i := 0; i < members; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			registry.Leave("lobby", memberStub{id: fmt.Sprintf("member-%d", i)})
			registry.Leave(fmt.Sprintf("room-%d", i), memberStub{id: fmt.Sprintf("solo-%d", i)})
		}(i)
	}
	wg.Wait()

	req.Zero(registry.Rooms())
}
