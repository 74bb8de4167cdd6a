//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
)

// Member is one entry in a room's member set: a session identifier plus the
// outbound side of its channel. A member belongs to at most one room at a
// time; the same display identity may hold several members (multiple tabs).
type Member interface {
	ID() string
	Send(body string) error
	Close() error
}

// Session is one client's lifetime inside a room: the Member surface plus
// the transport handshake and the inbound side. The session owns its
// physical channel exclusively; the registry only holds the Member handle.
type Session interface {
	Member

	// Accept completes the transport-level handshake.
	Accept() error

	// ReceiveNext blocks until the next inbound text frame. ok reports
	// false once the client has disconnected, gracefully or not; that is
	// the session's normal terminal signal, not an error.
	ReceiveNext() (body string, ok bool)
}

// Registry owns the mapping from room name to the set of currently
// connected members. All methods are safe for concurrent use from
// independent sessions, including for the same room.
type Registry interface {
	Join(room string, m Member)
	Leave(room string, m Member)
	Members(room string) []Member
}

// ChatLog is the append side of the durable, searchable message log.
type ChatLog interface {
	Append(record domain.Record) error
}

// Worker runs until its context is canceled or its work is done.
// Workers don't protect themselves; the Supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need for
// manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
