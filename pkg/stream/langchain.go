package stream

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/legalintel/counsel/pkg/logger"
)

// LangChainSource implements Source on top of a LangChain Go model,
// mapping its streaming callback onto a fragment channel.
type LangChainSource struct {
	llm          llms.Model
	systemPrompt string
}

// NewOllamaSource creates a source backed by a local Ollama server.
func NewOllamaSource(baseURL, model, systemPrompt string) (*LangChainSource, error) {
	var opts []ollama.Option
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}
	if model != "" {
		opts = append(opts, ollama.WithModel(model))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &LangChainSource{llm: llm, systemPrompt: systemPrompt}, nil
}

// NewOpenAISource creates a source backed by an OpenAI-compatible API.
// The API key is read from the environment by the underlying client.
func NewOpenAISource(model, systemPrompt string) (*LangChainSource, error) {
	var opts []openai.Option
	if model != "" {
		opts = append(opts, openai.WithModel(model))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &LangChainSource{llm: llm, systemPrompt: systemPrompt}, nil
}

// Open starts one streaming completion for the query. Fragments are
// delivered in arrival order; a provider error surfaces as a single
// terminal error fragment.
func (s *LangChainSource) Open(ctx context.Context, query string) (<-chan Fragment, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if s.systemPrompt != "" {
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, s.systemPrompt))
	}
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, query))

	fragments := make(chan Fragment, 64)

	go func() {
		defer close(fragments)

		streamed := false
		streamingFunc := func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			streamed = true
			select {
			case fragments <- Fragment{Text: string(chunk)}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		resp, err := s.llm.GenerateContent(ctx, messages, llms.WithStreamingFunc(streamingFunc))
		if err != nil {
			logger.Error("Model stream failed: %v", err)
			fragments <- Fragment{Err: fmt.Errorf("model stream failed: %w", err)}
			return
		}

		// Some providers return the whole completion without invoking the
		// streaming callback. Surface it as one fragment so the caller
		// still sees content.
		if !streamed && len(resp.Choices) > 0 && resp.Choices[0].Content != "" {
			select {
			case fragments <- Fragment{Text: resp.Choices[0].Content}:
			case <-ctx.Done():
			}
		}
	}()

	return fragments, nil
}
