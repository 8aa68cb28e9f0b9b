// Package llm is the adapter boundary to the generative text model. The
// pipeline talks to the Invoker interface only; the concrete
// implementation wraps a langchain-style model client. No retry policy
// lives here: a failed call surfaces immediately and the orchestrator
// records it.
package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"golang.org/x/time/rate"
)

// GenerateRequest is one synchronous model call.
type GenerateRequest struct {
	Prompt      string
	ModelID     string
	Temperature float64
}

// GenerateResult is the model's answer.
type GenerateResult struct {
	Text        string
	RawResponse string
}

// Invoker generates text from a prompt. Implementations must be safe for
// concurrent use; callers own timeout and cancellation via ctx.
type Invoker interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// Config for the Google AI backed invoker.
type Config struct {
	APIKey            string
	DefaultModel      string
	MaxTokens         int
	RequestsPerSecond float64
}

// GoogleAIInvoker implements Invoker on top of the langchain Google AI
// client, with a shared rate limiter in front of the API.
type GoogleAIInvoker struct {
	llm          llms.Model
	defaultModel string
	limiter      *rate.Limiter
}

// NewGoogleAI initializes the Gemini-backed invoker.
func NewGoogleAI(ctx context.Context, cfg Config) (*GoogleAIInvoker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-1.5-flash"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(model),
		googleai.WithDefaultMaxTokens(maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &GoogleAIInvoker{
		llm:          client,
		defaultModel: model,
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Generate performs one blocking model call.
func (g *GoogleAIInvoker) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	var opts []llms.CallOption
	if req.ModelID != "" {
		opts = append(opts, llms.WithModel(req.ModelID))
	}
	if req.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}

	model := req.ModelID
	if model == "" {
		model = g.defaultModel
	}
	log.Debug().
		Str("model", model).
		Int("prompt_bytes", len(req.Prompt)).
		Msg("Calling generative model")

	text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, req.Prompt, opts...)
	if err != nil {
		return nil, fmt.Errorf("LLM call failed: %w", err)
	}

	log.Debug().
		Str("model", model).
		Int("response_bytes", len(text)).
		Msg("Model call completed")

	return &GenerateResult{Text: text, RawResponse: text}, nil
}
