package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Response API shapes understood by the raw HTTP client.
const (
	ShapeChat      = "chat"
	ShapeResponses = "responses"
)

type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // for tool result messages
}

type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

type Request struct {
	Messages    []Message
	Tools       []Tool
	Temperature float64
	// JSONMode asks the provider to constrain output to a JSON object.
	JSONMode bool
	// Shape overrides the client's default response API shape. Ignored by
	// backends that only speak one shape.
	Shape string
}

// Response is either Final or ToolCallsRequested.
type Response interface {
	isResponse()
}

// Final is an assistant reply with no tool calls.
type Final struct {
	Text string
}

// ToolCallsRequested carries a non-empty set of calls the model wants resolved.
type ToolCallsRequested struct {
	Calls []ToolCall
}

func (Final) isResponse()              {}
func (ToolCallsRequested) isResponse() {}

type Client interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// ClampTemperature keeps t within [0,1].
func ClampTemperature(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	}
	return t
}

// newResponse builds the normalized view. Tool calls win over text.
func newResponse(text string, calls []ToolCall) Response {
	if len(calls) > 0 {
		return ToolCallsRequested{Calls: calls}
	}
	return Final{Text: text}
}
