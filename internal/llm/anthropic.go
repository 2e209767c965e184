package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const anthropicAPI = "https://api.anthropic.com/v1/messages"

type AnthropicClient struct {
	apiKey     string
	model      string
	url        string
	maxRetries int
	backoff    time.Duration
	http       *http.Client
}

func NewAnthropicClient(apiKey, model, url string, timeout time.Duration, maxRetries int) *AnthropicClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if url == "" {
		url = anthropicAPI
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnthropicClient{
		apiKey:     apiKey,
		model:      model,
		url:        url,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
		http:       &http.Client{Timeout: timeout},
	}
}

// Raw API request/response types

type anthRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      []anthText    `json:"system,omitempty"`
	Messages    []anthMessage `json:"messages"`
	Tools       []anthTool    `json:"tools,omitempty"`
}

type anthText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []anthBlock
}

type anthBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthResponse struct {
	Content []anthBlock `json:"content"`
}

func (c *AnthropicClient) Send(ctx context.Context, req Request) (Response, error) {
	anthTools := make([]anthTool, len(req.Tools))
	for i, t := range req.Tools {
		schema := map[string]any{"type": "object"}
		if props, ok := t.Parameters["properties"]; ok {
			schema["properties"] = props
		}
		if required, ok := t.Parameters["required"]; ok {
			schema["required"] = required
		}
		anthTools[i] = anthTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		}
	}

	var system []anthText
	var anthMsgs []anthMessage
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthText{Type: "text", Text: m.Content})
		case RoleTool:
			block := anthBlock{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content}
			// All results for one assistant turn travel in a single user message.
			if n := len(anthMsgs); n > 0 && anthMsgs[n-1].Role == RoleUser {
				if blocks, ok := anthMsgs[n-1].Content.([]anthBlock); ok && len(blocks) > 0 && blocks[0].Type == "tool_result" {
					anthMsgs[n-1].Content = append(blocks, block)
					continue
				}
			}
			anthMsgs = append(anthMsgs, anthMessage{Role: RoleUser, Content: []anthBlock{block}})
		case RoleUser:
			anthMsgs = append(anthMsgs, anthMessage{Role: RoleUser, Content: m.Content})
		case RoleAssistant:
			if len(m.ToolCalls) == 0 {
				anthMsgs = append(anthMsgs, anthMessage{Role: RoleAssistant, Content: m.Content})
				continue
			}
			var blocks []anthBlock
			if m.Content != "" {
				blocks = append(blocks, anthBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: json.RawMessage(marshalArgs(tc.Arguments)),
				})
			}
			anthMsgs = append(anthMsgs, anthMessage{Role: RoleAssistant, Content: blocks})
		}
	}

	reqBody := anthRequest{
		Model:       c.model,
		MaxTokens:   1024,
		Temperature: ClampTemperature(req.Temperature),
		System:      system,
		Messages:    anthMsgs,
		Tools:       anthTools,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var respBody []byte
	err = withRetry(ctx, c.maxRetries, c.backoff, func() error {
		respBody, err = c.post(ctx, body)
		return err
	})
	if err != nil {
		return nil, err
	}

	var anthResp anthResponse
	if err := json.Unmarshal(respBody, &anthResp); err != nil {
		return nil, &ProviderError{Provider: "anthropic", Err: fmt.Errorf("parsing response: %w", err)}
	}

	var text strings.Builder
	var calls []ToolCall
	for _, block := range anthResp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			params := map[string]any{}
			_ = json.Unmarshal(block.Input, &params)
			if params == nil {
				params = map[string]any{}
			}
			calls = append(calls, ToolCall{ID: block.ID, Name: block.Name, Arguments: params})
		}
	}

	return newResponse(strings.TrimSpace(text.String()), calls), nil
}

func (c *AnthropicClient) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: "anthropic", Err: fmt.Errorf("creating request: %w", errNotRetryable)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("User-Agent", "copiloto/1.0")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: "anthropic", Err: fmt.Errorf("anthropic request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: "anthropic", Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: "anthropic", StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}
