package core

import (
	"context"
	"fmt"
	"time"

	"gwi.com/linkedin-agent/internal/store"
)

const agentReplyTemplate = "I understand you want to: \"%s\". I'll help you automate this LinkedIn task. Let me process this request..."

// ChatService produces the agent's scripted reply. It does not perform any
// LinkedIn action.
type ChatService struct {
	replyDelay time.Duration
}

func NewChatService(replyDelay time.Duration) *ChatService {
	return &ChatService{replyDelay: replyDelay}
}

// AgentReply formats the canned acknowledgement for a user message.
func AgentReply(message string) string {
	return fmt.Sprintf(agentReplyTemplate, message)
}

// Respond delivers the agent turn on the returned channel after the reply
// delay. If ctx is done first the channel is closed without a value.
func (s *ChatService) Respond(ctx context.Context, message string) <-chan store.ChatTurn {
	out := make(chan store.ChatTurn, 1)
	go func() {
		defer close(out)

		timer := time.NewTimer(s.replyDelay)
		defer timer.Stop()

		select {
		case <-timer.C:
			out <- store.ChatTurn{Role: store.RoleAgent, Message: AgentReply(message)}
		case <-ctx.Done():
		}
	}()
	return out
}
