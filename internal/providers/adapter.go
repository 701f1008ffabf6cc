package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/certifier/pkg/formatting"
)

// ErrEmptyCompletion indicates a backend returned no usable content.
var ErrEmptyCompletion = errors.New("backend returned empty completion")

// Adapter is the contract every analysis backend satisfies.
type Adapter interface {
	Name() string
	Capabilities() []Capability
	// Probe reports whether the backend is reachable.
	Probe(ctx context.Context) error
	Analyze(ctx context.Context, req Request) (*AnalysisResult, error)
	// Generate returns free-form text for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIAdapter serves any backend exposing the OpenAI chat-completion API.
type OpenAIAdapter struct {
	cfg     BackendConfig
	caps    []Capability
	client  *openai.Client
	limiter *rate.Limiter
}

// NewOpenAIAdapter creates an adapter for cfg. A nil httpClient uses the
// go-openai default.
func NewOpenAIAdapter(cfg BackendConfig, httpClient *http.Client) *OpenAIAdapter {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &OpenAIAdapter{
		cfg:     cfg,
		caps:    cfg.CapabilityTags(),
		client:  openai.NewClientWithConfig(oc),
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
	}
}

func (a *OpenAIAdapter) Name() string {
	return a.cfg.Name
}

func (a *OpenAIAdapter) Capabilities() []Capability {
	return a.caps
}

// Dialect returns the content shape the backend produces.
func (a *OpenAIAdapter) Dialect() Dialect {
	return a.cfg.Dialect
}

func (a *OpenAIAdapter) Probe(ctx context.Context) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := a.client.ListModels(ctx); err != nil {
		return fmt.Errorf("probe %s: %w", a.cfg.Name, err)
	}
	return nil
}

func (a *OpenAIAdapter) Analyze(ctx context.Context, req Request) (*AnalysisResult, error) {
	system, user, err := composeAnalysisPrompt(req)
	if err != nil {
		return nil, err
	}

	content, err := a.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	result := Normalize(a.cfg.Dialect, content)
	if result.TechnicalDetails == nil {
		result.TechnicalDetails = make(map[string]any)
	}
	result.TechnicalDetails["model"] = a.cfg.Model
	return result, nil
}

func (a *OpenAIAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	content, err := a.complete(ctx, generationInstructions, prompt)
	if err != nil {
		return "", err
	}
	if a.cfg.Dialect == DialectReasoning {
		_, content = formatting.SplitReasoning(content)
	}
	return content, nil
}

func (a *OpenAIAdapter) complete(ctx context.Context, system, user string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", a.cfg.Name, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s: %w", a.cfg.Name, ErrEmptyCompletion)
	}

	return resp.Choices[0].Message.Content, nil
}
