// Package domain contains the core value types of the relay.
// Records are immutable: one record is produced per accepted inbound
// message and per membership transition, and appended once to the chat log.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a chat record.
type Kind string

const (
	KindUser   Kind = "user"
	KindJoined Kind = "joined"
	KindLeft   Kind = "left"
)

// Marker bodies logged for membership transitions, matching what the
// read side expects to find in the log.
const (
	joinedMarker = "[JOINED]"
	leftMarker   = "[LEFT]"
)

// Record is an immutable chat event.
type Record struct {
	ID   uuid.UUID
	Room string
	User string
	Kind Kind
	Body string
	At   time.Time
}

func NewUserRecord(room, user, body string) Record {
	return Record{
		ID:   uuid.New(),
		Room: room,
		User: user,
		Kind: KindUser,
		Body: body,
		At:   time.Now().UTC(),
	}
}

func NewJoinedRecord(room, user string) Record {
	return Record{
		ID:   uuid.New(),
		Room: room,
		User: user,
		Kind: KindJoined,
		Body: joinedMarker,
		At:   time.Now().UTC(),
	}
}

func NewLeftRecord(room, user string) Record {
	return Record{
		ID:   uuid.New(),
		Room: room,
		User: user,
		Kind: KindLeft,
		Body: leftMarker,
		At:   time.Now().UTC(),
	}
}

// Rendered returns the text line delivered to room members for this record.
// The decorative shape of these lines is a presentation detail, not a wire
// contract.
func (r Record) Rendered() string {
	switch r.Kind {
	case KindJoined:
		return fmt.Sprintf("%s joined the room.", r.User)
	case KindLeft:
		return fmt.Sprintf("%s left the room.", r.User)
	default:
		return fmt.Sprintf("%s: %s", r.User, r.Body)
	}
}
