package llm

import (
	"encoding/json"
	"unicode/utf8"
)

// charsPerToken approximates how many characters one token covers. Counted in
// runes so accented Spanish text is not overestimated.
const charsPerToken = 4

// EstimateTokens returns a rough token count for a string.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// EstimateMessageTokens counts content, tool calls and per-message framing.
func EstimateMessageTokens(m Message) int {
	tokens := 4 // role and delimiters
	tokens += EstimateTokens(m.Content)
	for _, tc := range m.ToolCalls {
		tokens += EstimateTokens(tc.Name)
		if args, err := json.Marshal(tc.Arguments); err == nil {
			tokens += EstimateTokens(string(args))
		}
		tokens += 4
	}
	if m.ToolCallID != "" {
		tokens += EstimateTokens(m.ToolCallID) + 2
	}
	return tokens
}

func EstimateMessagesTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}

// EstimateToolsTokens counts tool definitions, which are sent as JSON with
// every request that enables tools.
func EstimateToolsTokens(tools []Tool) int {
	total := 0
	for _, t := range tools {
		total += EstimateTokens(t.Name)
		total += EstimateTokens(t.Description)
		if schema, err := json.Marshal(t.Parameters); err == nil {
			total += EstimateTokens(string(schema))
		}
		total += 10
	}
	return total
}
