// README: Gemini completion provider using Google's generative-ai SDK.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/samber/lo"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiOptions tunes generation; zero values fall back to the service defaults.
type GeminiOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int32
}

// GeminiProvider implements Completer using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
func NewGeminiProvider(ctx context.Context, apiKey string, opts GeminiOptions) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: gemini: missing api key", ErrUpstreamUnavailable)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: create client: %w", ErrUpstreamUnavailable, err)
	}

	name := opts.Model
	if name == "" {
		name = defaultGeminiModel
	}
	model := client.GenerativeModel(name)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemInstruction)}}

	temperature := opts.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}
	model.SetTemperature(temperature)
	model.SetTopK(40)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(maxTokens)

	return &GeminiProvider{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Complete opens a fresh chat session seeded with history and sends prompt.
func (p *GeminiProvider) Complete(ctx context.Context, prompt string, history []Turn) (Completion, error) {
	session := p.model.StartChat()
	session.History = lo.Map(history, func(t Turn, _ int) *genai.Content {
		role := RoleUser
		if t.Role == RoleModel {
			role = RoleModel
		}
		return &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Text)}}
	})

	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return Completion{}, classifyGeminiError(err)
	}
	if len(resp.Candidates) == 0 {
		return Completion{}, fmt.Errorf("%w: gemini: API returned empty candidates", ErrUpstreamUnavailable)
	}

	cand := resp.Candidates[0]
	truncated := cand.FinishReason == genai.FinishReasonMaxTokens

	var parts []string
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				parts = append(parts, string(txt))
			}
		}
	}
	out := finish(parts, truncated)
	if out.Text == "" {
		return Completion{}, fmt.Errorf("%w: gemini: API returned empty text parts", ErrUpstreamUnavailable)
	}
	return out, nil
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: gemini: %w", ErrUpstreamUnavailable, err)
	}
	if isRateLimited(err) {
		return fmt.Errorf("%w: gemini: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("%w: gemini: %w", ErrUpstreamUnavailable, err)
}

// isRateLimited recognises throttling from both the REST and gRPC transports.
func isRateLimited(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusTooManyRequests {
		return true
	}
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPCode() == http.StatusTooManyRequests {
			return true
		}
		if st := apiErr.GRPCStatus(); st != nil && st.Code() == codes.ResourceExhausted {
			return true
		}
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.ResourceExhausted {
		return true
	}
	return false
}
