package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// User-facing texts of the travel-expert screen.
const (
	Greeting      = "Hello! I'm your AI travel expert powered by Gemini. How can I help you plan your trip today?"
	ApologyReply  = "I apologize, but I encountered an error. Please try again."
	TipsLoadAlert = "Failed to load tourist information. Please try again."
)

// Conversation keeps the transcript of one travel-expert chat. It opens with
// the greeting and records an apology turn when the model fails.
type Conversation struct {
	svc Service

	mu    sync.Mutex
	turns []types.ChatTurn
}

func NewConversation(svc Service) *Conversation {
	return &Conversation{
		svc:   svc,
		turns: []types.ChatTurn{types.NewChatTurn(types.RoleAssistant, Greeting)},
	}
}

// Send appends message and the model reply to the transcript and returns the
// reply turn. On model failure the reply is the apology and the error is
// returned alongside it.
func (c *Conversation) Send(ctx context.Context, message string) (types.ChatTurn, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return types.ChatTurn{}, fmt.Errorf("%w: message is empty", types.ErrBadRequest)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	history := append([]types.ChatTurn(nil), c.turns...)
	c.turns = append(c.turns, types.NewChatTurn(types.RoleUser, message))

	text, err := c.svc.Chat(ctx, message, history)
	if err != nil {
		text = ApologyReply
	}
	reply := types.NewChatTurn(types.RoleAssistant, text)
	c.turns = append(c.turns, reply)
	return reply, err
}

// Turns returns a copy of the transcript.
func (c *Conversation) Turns() []types.ChatTurn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.ChatTurn(nil), c.turns...)
}
