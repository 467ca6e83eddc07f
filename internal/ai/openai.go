// README: OpenAI completion provider using go-openai.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAIOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// OpenAIProvider implements Completer with the chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	opts   OpenAIOptions
}

func NewOpenAIProvider(apiKey string, opts OpenAIOptions) (*OpenAIProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: openai: missing api key", ErrUpstreamUnavailable)
	}
	if opts.Model == "" {
		opts.Model = defaultOpenAIModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 8192
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey), opts: opts}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, history []Turn) (Completion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.opts.Model,
		Messages:    buildOpenAIMessages(prompt, history),
		Temperature: p.opts.Temperature,
		MaxTokens:   p.opts.MaxTokens,
	})
	if err != nil {
		return Completion{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("%w: openai: API returned empty choices", ErrUpstreamUnavailable)
	}

	choice := resp.Choices[0]
	out := finish([]string{choice.Message.Content}, choice.FinishReason == openai.FinishReasonLength)
	if out.Text == "" {
		return Completion{}, fmt.Errorf("%w: openai: API returned empty content", ErrUpstreamUnavailable)
	}
	return out, nil
}

func buildOpenAIMessages(prompt string, history []Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: SystemInstruction})
	msgs = append(msgs, lo.Map(history, func(t Turn, _ int) openai.ChatCompletionMessage {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		return openai.ChatCompletionMessage{Role: role, Content: t.Text}
	})...)
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: openai: %w", ErrUpstreamUnavailable, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: openai: %v", ErrRateLimited, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: openai: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("%w: openai: %w", ErrUpstreamUnavailable, err)
}
