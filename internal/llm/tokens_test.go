package llm

import "testing"

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"canción", 2}, // 7 runes, 8 bytes
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEstimateMessageTokens(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		min  int
	}{
		{
			name: "plain user message",
			msg:  Message{Role: RoleUser, Content: "hola"},
			min:  5,
		},
		{
			name: "assistant with tool call",
			msg: Message{
				Role: RoleAssistant,
				ToolCalls: []ToolCall{
					{ID: "call_1", Name: "getWeather", Arguments: map[string]any{"city": "Rosario"}},
				},
			},
			min: 10,
		},
		{
			name: "tool result",
			msg:  Message{Role: RoleTool, Content: `{"temperature":21}`, ToolCallID: "call_1"},
			min:  10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateMessageTokens(tt.msg); got < tt.min {
				t.Errorf("EstimateMessageTokens() = %d, want >= %d", got, tt.min)
			}
		})
	}
}

func TestEstimateMessagesTokens_Sums(t *testing.T) {
	a := Message{Role: RoleUser, Content: "uno"}
	b := Message{Role: RoleAssistant, Content: "dos"}
	want := EstimateMessageTokens(a) + EstimateMessageTokens(b)
	if got := EstimateMessagesTokens([]Message{a, b}); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestEstimateToolsTokens(t *testing.T) {
	tools := []Tool{{
		Name:        "calc",
		Description: "Evalúa una expresión aritmética.",
		Parameters:  ObjReq(map[string]any{"expression": Prop("string", "Expresión")}, "expression"),
	}}
	if got := EstimateToolsTokens(tools); got <= 10 {
		t.Errorf("EstimateToolsTokens() = %d, expected > 10", got)
	}
}
