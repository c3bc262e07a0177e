package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies the author of a chat turn.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatTurn is one message of a travel-expert conversation.
type ChatTurn struct {
	ID        uuid.UUID   `json:"id"`
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewChatTurn stamps a new turn.
func NewChatTurn(role MessageRole, text string) ChatTurn {
	return ChatTurn{
		ID:        uuid.New(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// Tip is one tourist-guide card.
type Tip struct {
	Title   string `json:"title"`
	Icon    string `json:"icon"`
	Content string `json:"content"`
}

// SearchIntent is a structured reading of a natural-language place query.
type SearchIntent struct {
	Type         string   `json:"type"`
	Keywords     []string `json:"keywords"`
	Requirements []string `json:"requirements"`
}

// Query flattens the intent into a provider search string.
func (i SearchIntent) Query() string {
	parts := make([]string, 0, 1+len(i.Keywords)+len(i.Requirements))
	if t := strings.TrimSpace(i.Type); t != "" {
		parts = append(parts, t)
	}
	for _, k := range i.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			parts = append(parts, k)
		}
	}
	for _, r := range i.Requirements {
		if r = strings.TrimSpace(r); r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, " ")
}
