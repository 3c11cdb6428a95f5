package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/supreme-chatbot/internal/analysis/emotion"
	"github.com/zhouzirui/supreme-chatbot/internal/model/chat"
	"github.com/zhouzirui/supreme-chatbot/internal/model/persona"
)

// Service answers companion chat turns through an eino chain.
type Service struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	persona      persona.Persona
	historyLimit int
	log          zerolog.Logger

	mu      sync.Mutex
	history map[string][]chat.Message
}

// NewService compiles the prompt chain around chatModel.
func NewService(ctx context.Context, chatModel model.ChatModel, p persona.Persona, historyLimit int, logger zerolog.Logger) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chain:        runnable,
		persona:      p,
		historyLimit: historyLimit,
		log:          logger.With().Str("component", "ai").Logger(),
		history:      make(map[string][]chat.Message),
	}, nil
}

// Reply generates the companion answer for one user turn and remembers the
// exchange for the user's next turns.
func (s *Service) Reply(ctx context.Context, userID, message string) (string, error) {
	decision := emotion.Analyze(message)
	input := map[string]any{
		"system":  BuildSystemPrompt(s.persona, decision),
		"history": buildHistoryMessages(s.recent(userID), s.historyLimit),
		"query":   message,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	s.remember(userID, chat.UserMessage(message), chat.BotMessage(response.Content))
	s.log.Info().
		Str("user", userID).
		Str("emotion", string(decision.Emotion)).
		Int("length", len(response.Content)).
		Msg("generated reply")
	return response.Content, nil
}

func (s *Service) recent(userID string) []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Message(nil), s.history[userID]...)
}

func (s *Service) remember(userID string, messages ...chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.history[userID], messages...)
	if s.historyLimit <= 0 {
		delete(s.history, userID)
		return
	}
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}
	s.history[userID] = history
}

func buildHistoryMessages(messages []chat.Message, limit int) []*schema.Message {
	if len(messages) == 0 || limit <= 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > limit {
		startIdx = len(messages) - limit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		if msg.IsBot {
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		} else {
			history = append(history, schema.UserMessage(msg.Text))
		}
	}

	return history
}
