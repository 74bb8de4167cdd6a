package runtime

import (
	"fmt"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/moderation"
)

// Broadcaster ties sessions, the registry and the chat log together.
// One Run call services one session for its entire lifetime and is meant to
// be executed on its own goroutine; the registry is the only state shared
// between those goroutines.
type Broadcaster struct {
	registry  contract.Registry
	chatLog   contract.ChatLog
	moderator *moderation.Moderator // nil disables censoring
	log       *slog.Logger
}

func NewBroadcaster(log *slog.Logger, registry contract.Registry,
	chatLog contract.ChatLog, moderator *moderation.Moderator) *Broadcaster {
	return &Broadcaster{
		registry:  registry,
		chatLog:   chatLog,
		moderator: moderator,
		log:       log,
	}
}

// Run drives one session from handshake to close: join, joined notice,
// receive loop, leave, left notice. It returns once the client disconnects.
// A handshake failure aborts before any registry mutation or log append.
//
// The joined notice is fanned out to the full post-join member set, so the
// new member receives its own notice.
func (b *Broadcaster) Run(session contract.Session, room, identity string) error {
	if err := session.Accept(); err != nil {
		return fmt.Errorf("session %s: %w", session.ID(), err)
	}
	// Run owns the transport from here on; Close is idempotent, so an
	// earlier eviction by a sibling's fan-out is harmless.
	defer func() { _ = session.Close() }()

	b.registry.Join(room, session)
	b.publish(domain.NewJoinedRecord(room, identity))

	for {
		body, ok := session.ReceiveNext()
		if !ok {
			break
		}
		if b.moderator != nil {
			body = b.moderator.Censor(body)
		}
		b.publish(domain.NewUserRecord(room, identity, body))
	}

	// Leave is idempotent: if a sibling's fan-out already evicted this
	// session, only this path emits the left notice, and only once.
	b.registry.Leave(room, session)
	b.publish(domain.NewLeftRecord(room, identity))
	return nil
}

// publish appends the record to the chat log, then fans its rendered line
// out to the room's current members. The append is attempted first and is
// best effort: a log store failure is reported once and never holds back
// delivery.
func (b *Broadcaster) publish(record domain.Record) {
	if err := b.chatLog.Append(record); err != nil {
		b.log.Error("chat log append failed",
			"room", record.Room,
			"kind", record.Kind,
			"error", err)
	}
	b.fanout(record)
}

// fanout delivers the record to a snapshot of the room's members. A failed
// send is proof of a dead peer, not a transient condition to retry: the
// member is evicted from the registry and its transport closed, inducing
// its own loop to terminate. Delivery continues with the remaining members.
func (b *Broadcaster) fanout(record domain.Record) {
	line := record.Rendered()
	for _, member := range b.registry.Members(record.Room) {
		if err := member.Send(line); err != nil {
			b.registry.Leave(record.Room, member)
			_ = member.Close()
			b.log.Warn("evicted member after failed send",
				"room", record.Room,
				"member", member.ID(),
				"error", err)
		}
	}
}
