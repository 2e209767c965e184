package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// NormalizeChat reads a chat-completions body: a "choices" array whose first
// message carries the reply text and any tool calls.
func NormalizeChat(body []byte) (Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON body: %w", errNotRetryable)
	}
	msg := gjson.GetBytes(body, "choices.0.message")

	var calls []ToolCall
	msg.Get("tool_calls").ForEach(func(_, tc gjson.Result) bool {
		calls = append(calls, toolCall(
			tc.Get("id").String(),
			tc.Get("function.name").String(),
			tc.Get("function.arguments"),
		))
		return true
	})

	return newResponse(strings.TrimSpace(contentText(msg.Get("content"))), calls), nil
}

// NormalizeResponses reads a responses-API body: an "output" array mixing
// message items and function_call items, plus the optional flat
// "output_text" convenience field which wins over the message items.
func NormalizeResponses(body []byte) (Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON body: %w", errNotRetryable)
	}
	root := gjson.ParseBytes(body)

	var calls []ToolCall
	var parts []string
	root.Get("output").ForEach(func(_, item gjson.Result) bool {
		switch item.Get("type").String() {
		case "function_call":
			id := item.Get("call_id").String()
			if id == "" {
				id = item.Get("id").String()
			}
			calls = append(calls, toolCall(id, item.Get("name").String(), item.Get("arguments")))
		case "message":
			parts = append(parts, contentText(item.Get("content")))
		}
		return true
	})

	text := strings.Join(parts, "")
	if ot := root.Get("output_text"); ot.Exists() && ot.Type == gjson.String && ot.String() != "" {
		text = ot.String()
	}
	return newResponse(strings.TrimSpace(text), calls), nil
}

// contentText accepts either a plain string or an array of typed parts and
// concatenates the text-bearing parts. Whitespace is kept so that joined
// segments stay separated; callers trim the final text.
func contentText(c gjson.Result) string {
	if !c.IsArray() {
		return c.String()
	}
	var b strings.Builder
	c.ForEach(func(_, part gjson.Result) bool {
		switch part.Get("type").String() {
		case "text", "output_text", "":
			b.WriteString(part.Get("text").String())
		}
		return true
	})
	return b.String()
}

// toolCall builds a ToolCall from a provider entry. Arguments arrive as a
// JSON-encoded string or, on some providers, as an inline object.
func toolCall(id, name string, args gjson.Result) ToolCall {
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	return ToolCall{ID: id, Name: name, Arguments: decodeArguments(name, args)}
}

func decodeArguments(name string, args gjson.Result) map[string]any {
	raw := args.Raw
	if args.Type == gjson.String {
		raw = args.String()
	}
	params := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return params
	}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		log.Printf("llm: tool %s: discarding unparseable arguments: %v", name, err)
		return map[string]any{}
	}
	if params == nil { // literal null
		params = map[string]any{}
	}
	return params
}
