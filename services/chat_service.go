package services

import (
	"context"

	"chat-relay/domain"
	"chat-relay/repositories"
)

type IChatService interface {
	Search(ctx context.Context, room, query string) ([]domain.Record, uint64, error)
	RoomLog(ctx context.Context, room string, max int) ([]domain.Record, error)
	History(room string, cursor *string) ([]domain.Record, *string, error)
}

// ChatService is the read side over the chat log. The write side goes
// through the broadcaster, which appends directly; this service never sits
// on the hot broadcast path.
type ChatService struct {
	chatLog repositories.IChatLogRepository
}

func NewChatService(chatLog repositories.IChatLogRepository) *ChatService {
	return &ChatService{chatLog: chatLog}
}

func (s *ChatService) Search(ctx context.Context, room, query string) ([]domain.Record, uint64, error) {
	return s.chatLog.Search(ctx, room, query)
}

func (s *ChatService) RoomLog(ctx context.Context, room string, max int) ([]domain.Record, error) {
	return s.chatLog.QueryByRoom(ctx, room, max)
}

func (s *ChatService) History(room string, cursor *string) ([]domain.Record, *string, error) {
	return s.chatLog.History(room, cursor)
}
