package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.0-flash"

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("empty response from model")

// ChatClient abstracts LLM capabilities needed by domain services.
type ChatClient interface {
	// GenerateContent runs a single-shot prompt and returns the response text.
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
	// SendChatMessage continues a conversation seeded with history and returns the reply text.
	SendChatMessage(ctx context.Context, history []types.ChatTurn, message string, config *genai.GenerateContentConfig) (string, error)
	Model() string
}

// Options configures a Gemini client.
type Options struct {
	APIKey     string
	Model      string
	HTTPClient *http.Client
	BaseURL    string // overrides the Gemini endpoint, used by tests
}

// GeminiChatClient implements ChatClient on the Gemini API.
type GeminiChatClient struct {
	client *genai.Client
	model  string
}

// NewGeminiChatClient creates a ChatClient backed by Gemini.
func NewGeminiChatClient(ctx context.Context, opts Options) (*GeminiChatClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiChatClient{client: client, model: model}, nil
}

func (g *GeminiChatClient) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return responseText(resp)
}

func (g *GeminiChatClient) SendChatMessage(ctx context.Context, history []types.ChatTurn, message string, config *genai.GenerateContentConfig) (string, error) {
	chat, err := g.client.Chats.Create(ctx, g.model, config, toContents(history))
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}
	resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return responseText(resp)
}

func (g *GeminiChatClient) Model() string {
	return g.model
}

// toContents maps turns to Gemini roles. Gemini requires history to open
// with a user turn, so leading assistant turns are dropped.
func toContents(history []types.ChatTurn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.Role(genai.RoleUser)
		if turn.Role == types.RoleAssistant {
			if len(contents) == 0 {
				continue
			}
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
