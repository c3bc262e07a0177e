package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/loci-local-assistant/internal/llm"
	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

const (
	chatTemperature       = 0.7
	structuredTemperature = 0.2
)

var _ Service = (*ServiceImpl)(nil)

// Service is the travel-expert surface backed by a generative model.
type Service interface {
	Chat(ctx context.Context, message string, history []types.ChatTurn) (string, error)
	GetTips(ctx context.Context, location string) ([]types.Tip, error)
	InterpretQuery(ctx context.Context, query string) (*types.SearchIntent, error)
}

type ServiceImpl struct {
	client llm.ChatClient
	logger *slog.Logger
}

func NewServiceImpl(client llm.ChatClient, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		client: client,
		logger: logger,
	}
}

// Chat sends message on top of history and returns the model reply.
func (s *ServiceImpl) Chat(ctx context.Context, message string, history []types.ChatTurn) (string, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Chat", trace.WithAttributes(
		attribute.String("llm.model", s.client.Model()),
		attribute.Int("chat.history", len(history)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Chat"))

	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is empty", types.ErrBadRequest)
	}

	reply, err := s.client.SendChatMessage(ctx, history, message, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](chatTemperature),
	})
	if err != nil {
		l.ErrorContext(ctx, "Travel expert request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat failed")
		return "", fmt.Errorf("%w: %v", types.ErrAdviceUnavailable, err)
	}

	span.SetStatus(codes.Ok, "")
	return reply, nil
}

// GetTips asks for the six tourist-guide cards for location. Once code fences
// are stripped the reply must be a non-empty JSON array; anything else fails
// with ErrInvalidAdviceFormat.
func (s *ServiceImpl) GetTips(ctx context.Context, location string) ([]types.Tip, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "GetTips", trace.WithAttributes(
		attribute.String("tips.location", location),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetTips"), slog.String("location", location))

	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is empty", types.ErrBadRequest)
	}

	text, err := s.client.GenerateContent(ctx, getTouristTipsPrompt(location), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](structuredTemperature),
	})
	if err != nil {
		l.ErrorContext(ctx, "Tourist tips request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		return nil, fmt.Errorf("%w: %v", types.ErrAdviceUnavailable, err)
	}

	var tips []types.Tip
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &tips); err != nil || len(tips) == 0 {
		l.WarnContext(ctx, "Tourist tips response is not a JSON array", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid format")
		return nil, types.ErrInvalidAdviceFormat
	}

	l.InfoContext(ctx, "Tourist tips generated", slog.Int("count", len(tips)))
	span.SetAttributes(attribute.Int("tips.count", len(tips)))
	span.SetStatus(codes.Ok, "")
	return tips, nil
}

// InterpretQuery turns a free-text request such as "quiet cafe with wifi"
// into a structured search intent.
func (s *ServiceImpl) InterpretQuery(ctx context.Context, query string) (*types.SearchIntent, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "InterpretQuery", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "InterpretQuery"))

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", types.ErrBadRequest)
	}

	text, err := s.client.GenerateContent(ctx, getInterpretQueryPrompt(query), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](structuredTemperature),
	})
	if err != nil {
		l.ErrorContext(ctx, "Query interpretation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		return nil, fmt.Errorf("%w: %v", types.ErrAdviceUnavailable, err)
	}

	var intent types.SearchIntent
	if err := json.Unmarshal([]byte(cleanJSONResponse(text, '{')), &intent); err != nil || intent.Query() == "" {
		l.WarnContext(ctx, "Search intent response could not be parsed", slog.Any("error", err))
		span.SetStatus(codes.Error, "invalid format")
		return nil, types.ErrInvalidAdviceFormat
	}

	span.SetAttributes(attribute.String("intent.type", intent.Type))
	span.SetStatus(codes.Ok, "")
	return &intent, nil
}
