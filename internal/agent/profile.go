package agent

import "github.com/chris/copiloto/internal/llm"

// Profile is one way of answering: which prompt, whether tools and the
// per-user notes are in play, and how the provider is called.
type Profile struct {
	Name        string
	Prompt      string
	Temperature float64
	Tools       bool
	Memory      bool
	Shape       string // empty uses the client's default
	Fallback    string // reply when the model returns nothing
}

const DefaultFallback = "Listo."

var (
	Chat      = Profile{Name: "chat", Prompt: llm.ChatPrompt, Temperature: 0.4}
	Assistant = Profile{Name: "assistant", Prompt: llm.AssistantPrompt, Temperature: 0.3, Tools: true}
	Memory    = Profile{Name: "memory", Prompt: llm.AssistantPrompt, Temperature: 0.4, Tools: true, Memory: true}
)

// Profiles returns the built-in profiles keyed by name.
func Profiles() map[string]Profile {
	return map[string]Profile{
		Chat.Name:      Chat,
		Assistant.Name: Assistant,
		Memory.Name:    Memory,
	}
}

func (p Profile) fallback() string {
	if p.Fallback != "" {
		return p.Fallback
	}
	return DefaultFallback
}
