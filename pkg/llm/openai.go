package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"sorrymonster/pkg/clients"
)

// ErrEmptyChoices is returned when the provider answers without any choice.
var ErrEmptyChoices = errors.New("openai: empty choices")

// OpenAIProvider talks to the chat completions API through the official SDK.
type OpenAIProvider struct {
	client    openai.Client
	model     string
	maxTokens int
}

func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithHTTPClient(clients.NewHTTPClient(cfg.Timeout)),
		// failsafe owns retries and breaking
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if u := strings.TrimRight(cfg.APIURL, "/"); u != "" {
		opts = append(opts, option.WithBaseURL(u+"/"))
	}
	return &OpenAIProvider{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	if p.model == "" {
		return "", errors.New("openai model is required")
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
	}
	if p.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.maxTokens))
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoices
	}
	return resp.Choices[0].Message.Content, nil
}
