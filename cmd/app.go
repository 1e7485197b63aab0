package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/legalintel/counsel/pkg/chat"
	"github.com/legalintel/counsel/pkg/config"
	"github.com/legalintel/counsel/pkg/engine"
	"github.com/legalintel/counsel/pkg/logger"
	"github.com/legalintel/counsel/pkg/store"
	"github.com/legalintel/counsel/pkg/stream"
	"github.com/legalintel/counsel/pkg/tui"
)

func newSource(cfg *config.Config) (stream.Source, error) {
	switch cfg.Provider {
	case "openai":
		return stream.NewOpenAISource(cfg.OpenAI.Model, cfg.Chat.SystemPrompt)
	default:
		return stream.NewOllamaSource(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Chat.SystemPrompt)
	}
}

// runChat drives the interactive session: read a line, submit it, and
// print the assistant's reply as it streams.
func runChat(ctx context.Context) error {
	cfg := config.Get()

	source, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	eng := engine.New(source)

	if cfg.Chat.Owner != "" {
		log, err := store.NewNATSLog(ctx, cfg.NATS.URL)
		if err != nil {
			// Chat continuity over durability: fall back to anonymous.
			logger.Warn("Durable chat log unavailable, running anonymous: %v", err)
			fmt.Println(tui.RenderNotice("History is unavailable; this session will not be saved."))
		} else {
			defer log.Close()
			if err := eng.Bind(ctx, cfg.Chat.Owner, log); err != nil {
				logger.Warn("Failed to subscribe to chat log: %v", err)
			}
		}
	}

	fmt.Printf("counsel — %s (%s). Type a legal question, or /quit to exit.\n\n", cfg.ActiveModel(), cfg.Provider)

	renderer := tui.NewRenderer(100)

	// Show restored history, if the change feed has delivered any yet.
	select {
	case <-eng.Updates():
		if view := eng.Snapshot(); len(view.Entries) > 0 {
			fmt.Println(renderer.RenderTranscript(view.Entries))
			fmt.Println()
		}
	case <-time.After(500 * time.Millisecond):
	}
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" || line == "/exit" {
			break
		}

		err := eng.Submit(ctx, line)
		if errors.Is(err, engine.ErrEmptyQuery) {
			continue
		}
		if err != nil {
			fmt.Println(tui.RenderNotice(err.Error()))
			continue
		}

		followStream(ctx, eng)
	}

	return scanner.Err()
}

// followStream prints the in-flight assistant entry incrementally until
// it reaches a terminal state.
func followStream(ctx context.Context, eng *engine.Engine) {
	printed := 0
	for {
		select {
		case <-eng.Updates():
			view := eng.Snapshot()
			entry, ok := currentAssistant(view)
			if !ok {
				continue
			}

			if entry.Status == chat.StatusFailed {
				fmt.Println()
				fmt.Println(tui.RenderNotice(entry.Content))
				return
			}

			if len(entry.Content) > printed {
				fmt.Print(entry.Content[printed:])
				printed = len(entry.Content)
			}

			if entry.Status == chat.StatusComplete && !view.Busy {
				fmt.Print("\n\n")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// currentAssistant finds the newest assistant entry in the view.
func currentAssistant(view engine.View) (chat.Entry, bool) {
	for i := len(view.Entries) - 1; i >= 0; i-- {
		if view.Entries[i].IsAssistant() {
			return view.Entries[i], true
		}
	}
	return chat.Entry{}, false
}
