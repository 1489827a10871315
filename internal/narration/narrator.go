// Package narration turns deterministic assessment payloads into short
// conversational summaries via an OpenAI-compatible chat API, typically a
// local Ollama instance. The model only phrases what the engine computed; it
// is never the source of numbers or decisions.
package narration

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"github.com/ridecast/ridecast/internal/assessment"
)

// DefaultBaseURL points at a local Ollama server's OpenAI-compatible API.
const DefaultBaseURL = "http://localhost:11434/v1"

// ErrEmptyReply is returned when the model produces no usable text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Config holds configuration for the narrator.
type Config struct {
	// BaseURL is the OpenAI-compatible endpoint (default: local Ollama).
	BaseURL string

	// APIKey authenticates against the endpoint. Ollama ignores the value
	// but the client requires one.
	APIKey string

	// Model is the chat model name (required), e.g. "llama3.1:8b".
	Model string

	// MaxSampleHours caps how many hourly entries are quoted in the prompt
	// (default: 4).
	MaxSampleHours int

	// BannedPhrases rejects replies containing any of these (default:
	// "overall", "in summary").
	BannedPhrases []string

	// Logger for narrator operations.
	Logger zerolog.Logger
}

// Narrator generates ride narrations from assessment payloads.
type Narrator struct {
	client         openai.Client
	model          string
	maxSampleHours int
	banned         []string
	logger         zerolog.Logger
}

// New creates a narrator.
func New(cfg Config) *Narrator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "ollama"
	}
	maxSampleHours := cfg.MaxSampleHours
	if maxSampleHours == 0 {
		maxSampleHours = 4
	}
	banned := cfg.BannedPhrases
	if banned == nil {
		banned = []string{"overall", "in summary"}
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &Narrator{
		client:         client,
		model:          cfg.Model,
		maxSampleHours: maxSampleHours,
		banned:         banned,
		logger:         cfg.Logger,
	}
}

// Narrate answers the question over the precomputed payload. Replies that
// fail phrasing validation are returned raw (fences stripped) with a warning
// rather than dropped.
func (n *Narrator) Narrate(ctx context.Context, payload *assessment.Payload, question string) (string, error) {
	system, user := BuildMessages(payload, question, n.maxSampleHours)

	resp, err := n.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(n.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	raw := resp.Choices[0].Message.Content
	text, err := Validate(raw, n.banned)
	if err != nil {
		n.logger.Warn().Err(err).Msg("narration failed validation, returning raw reply")
		text = StripMarkdownFences(raw)
	}
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
