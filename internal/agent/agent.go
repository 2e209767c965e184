package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/chris/copiloto/internal/llm"
	"github.com/chris/copiloto/internal/notes"
	"github.com/chris/copiloto/internal/tools"
)

// MaxToolRounds bounds the follow-up provider calls made to resolve tools.
const MaxToolRounds = 2

var ErrNoUserMessage = errors.New("conversation has no user message")

type Agent struct {
	client           llm.Client
	tools            *tools.Registry
	notes            notes.Store
	MaxContextTokens int
}

// New builds an Agent. registry and store may be nil, which disables tools
// and memory for every profile.
func New(client llm.Client, registry *tools.Registry, store notes.Store, maxContextTokens int) *Agent {
	return &Agent{client: client, tools: registry, notes: store, MaxContextTokens: maxContextTokens}
}

// Run answers userText after history using profile p. It makes at most
// 1+MaxToolRounds provider calls.
func (a *Agent) Run(ctx context.Context, p Profile, history []llm.Message, userText string) (string, error) {
	return a.run(ctx, p, p.Prompt, history, userText)
}

// Reply answers the last user message in messages. With a memory profile it
// first stores any "remember that" fact and then feeds the user's notes into
// the system prompt.
func (a *Agent) Reply(ctx context.Context, p Profile, userID string, messages []llm.Message) (string, error) {
	n := len(messages)
	if n == 0 || messages[n-1].Role != llm.RoleUser || strings.TrimSpace(messages[n-1].Content) == "" {
		return "", ErrNoUserMessage
	}
	userText := messages[n-1].Content
	history := messages[:n-1]

	system := p.Prompt
	if p.Memory && a.notes != nil && userID != "" {
		if fact, ok := notes.ExtractRemember(userText); ok {
			if err := a.notes.Append(ctx, userID, fact); err != nil {
				log.Printf("agent: saving note for %s: %v", userID, err)
			}
		}
		list, err := a.notes.List(ctx, userID)
		if err != nil {
			log.Printf("agent: loading notes for %s: %v", userID, err)
		}
		system = BuildSystemPrompt(p.Prompt, list)
	}

	return a.run(ctx, p, system, history, userText)
}

func (a *Agent) run(ctx context.Context, p Profile, system string, history []llm.Message, userText string) (string, error) {
	var defs []llm.Tool
	useTools := p.Tools && a.tools != nil
	if useTools {
		defs = a.tools.Definitions()
	}

	history = a.trim(system, defs, history)
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userText})

	resp, err := a.send(ctx, p, messages, defs)
	if err != nil {
		return "", err
	}

	for round := 0; ; round++ {
		req, ok := resp.(llm.ToolCallsRequested)
		if !ok {
			break
		}
		if !useTools {
			log.Printf("agent: %s profile got tool calls with tools disabled; ignoring", p.Name)
			break
		}
		if round >= MaxToolRounds {
			log.Printf("agent: tool round budget (%d) exhausted with %d calls pending", MaxToolRounds, len(req.Calls))
			break
		}

		results := a.tools.InvokeAll(ctx, req.Calls)
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, ToolCalls: req.Calls})
		for _, r := range results {
			messages = append(messages, llm.Message{Role: llm.RoleTool, Content: r.Content, ToolCallID: r.ToolCallID})
		}

		if resp, err = a.send(ctx, p, messages, defs); err != nil {
			return "", err
		}
	}

	var text string
	if f, ok := resp.(llm.Final); ok {
		text = strings.TrimSpace(f.Text)
	}
	if text == "" {
		return p.fallback(), nil
	}
	return text, nil
}

func (a *Agent) send(ctx context.Context, p Profile, messages []llm.Message, defs []llm.Tool) (llm.Response, error) {
	resp, err := a.client.Send(ctx, llm.Request{
		Messages:    messages,
		Tools:       defs,
		Temperature: p.Temperature,
		Shape:       p.Shape,
	})
	if err != nil {
		return nil, fmt.Errorf("llm send: %w", err)
	}
	return resp, nil
}

// trim drops the oldest history so the request fits MaxContextTokens.
func (a *Agent) trim(system string, defs []llm.Tool, history []llm.Message) []llm.Message {
	if a.MaxContextTokens <= 0 || len(history) == 0 {
		return history
	}
	fixed := llm.EstimateTokens(system) + llm.EstimateToolsTokens(defs)
	budget := a.MaxContextTokens - fixed
	if budget < 1000 {
		budget = 1000 // floor so we always have room for recent turns
	}
	trimmed := llm.TrimMessages(history, budget)
	if len(trimmed) < len(history) {
		log.Printf("agent: context trimmed: %d → %d messages", len(history), len(trimmed))
	}
	return trimmed
}
