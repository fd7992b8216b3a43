package core

import (
	"context"
	"fmt"
	"time"

	"github.com/Lovaxcoding/Health-Track-Project/internal/store"
)

// Store is everything the chat pipeline needs from persistence.
type Store interface {
	ContextReader
	GetMessagesByUserID(userID int64) ([]store.ChatMessage, error)
	CreateMessagePair(ctx context.Context, userID int64, question, answer string) (*store.ChatMessage, *store.ChatMessage, error)
	DeleteMessagesByUserID(userID int64) (int64, error)
}

// Generator produces text for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatService runs the conversational pipeline: assemble context, call the
// provider once under a deadline, persist the turn pair atomically.
type ChatService struct {
	store      Store
	assembler  *ContextAssembler
	generator  Generator
	genTimeout time.Duration
}

func NewChatService(db Store, generator Generator, genTimeout time.Duration) *ChatService {
	return &ChatService{
		store:      db,
		assembler:  NewContextAssembler(db),
		generator:  generator,
		genTimeout: genTimeout,
	}
}

// PostMessage handles one turn and returns the two created rows, user turn
// first. On any error no rows exist for the turn.
func (s *ChatService) PostMessage(ctx context.Context, userID int64, content string) ([]store.ChatMessage, error) {
	prompt, err := s.assembler.BuildPrompt(ctx, userID, content)
	if err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()
	answer, err := s.generator.Generate(genCtx, prompt)
	if err != nil {
		return nil, err
	}

	userMsg, assistantMsg, err := s.store.CreateMessagePair(ctx, userID, content, answer)
	if err != nil {
		return nil, fmt.Errorf("failed to persist turn: %w", err)
	}
	return []store.ChatMessage{*userMsg, *assistantMsg}, nil
}

// History returns the user's turns in chronological order.
func (s *ChatService) History(userID int64) ([]store.ChatMessage, error) {
	return s.store.GetMessagesByUserID(userID)
}

// ClearHistory deletes all of the user's turns, immediately and irreversibly.
func (s *ChatService) ClearHistory(userID int64) (int64, error) {
	return s.store.DeleteMessagesByUserID(userID)
}
