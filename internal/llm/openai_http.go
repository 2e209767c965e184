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

const openAIAPI = "https://api.openai.com/v1"

// HTTPClient talks to an OpenAI-compatible endpoint over plain HTTP and
// supports both the chat-completions and the responses API shapes.
type HTTPClient struct {
	apiKey     string
	model      string
	baseURL    string
	shape      string
	maxRetries int
	backoff    time.Duration
	http       *http.Client
}

type HTTPOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	Shape      string
	Timeout    time.Duration
	MaxRetries int
}

func NewHTTPClient(o HTTPOptions) *HTTPClient {
	if o.Model == "" {
		o.Model = "gpt-5"
	}
	if o.BaseURL == "" {
		o.BaseURL = openAIAPI
	}
	if o.Shape == "" {
		o.Shape = ShapeChat
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return &HTTPClient{
		apiKey:     o.APIKey,
		model:      o.Model,
		baseURL:    strings.TrimRight(o.BaseURL, "/"),
		shape:      o.Shape,
		maxRetries: o.MaxRetries,
		backoff:    500 * time.Millisecond,
		http:       &http.Client{Timeout: o.Timeout},
	}
}

// Raw API request types

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature"`
	Messages       []chatMessage `json:"messages"`
	Tools          []chatTool    `json:"tools,omitempty"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatTool struct {
	Type     string  `json:"type"`
	Function funcDef `json:"function"`
}

type funcDef struct {
	Type        string         `json:"type,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type responsesRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Input       []responsesItem `json:"input"`
	Tools       []funcDef       `json:"tools,omitempty"`
	Text        *struct {
		Format formatSpec `json:"format"`
	} `json:"text,omitempty"`
}

// responsesItem is either a role message, a function_call echo or a
// function_call_output. Unused fields are omitted.
type responsesItem struct {
	Type      string `json:"type,omitempty"`
	Role      string `json:"role,omitempty"`
	Content   string `json:"content,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

func (c *HTTPClient) Send(ctx context.Context, req Request) (Response, error) {
	shape := req.Shape
	if shape == "" {
		shape = c.shape
	}

	var (
		body      any
		path      string
		normalize func([]byte) (Response, error)
	)
	switch shape {
	case ShapeChat:
		body, path, normalize = c.chatBody(req), "/chat/completions", NormalizeChat
	case ShapeResponses:
		body, path, normalize = c.responsesBody(req), "/responses", NormalizeResponses
	default:
		return nil, fmt.Errorf("unknown API shape: %s", shape)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var respBody []byte
	err = withRetry(ctx, c.maxRetries, c.backoff, func() error {
		respBody, err = c.post(ctx, c.baseURL+path, payload)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp, err := normalize(respBody)
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return resp, nil
}

func (c *HTTPClient) post(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Err: fmt.Errorf("creating request: %w", errNotRetryable)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "copiloto/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Err: fmt.Errorf("openai request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Err: fmt.Errorf("reading response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{Provider: "openai", StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (c *HTTPClient) chatBody(req Request) chatRequest {
	out := chatRequest{
		Model:       c.model,
		Temperature: ClampTemperature(req.Temperature),
	}
	if req.JSONMode {
		out.ResponseFormat = &formatSpec{Type: "json_object"}
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, chatTool{
			Type:     "function",
			Function: funcDef{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	for _, m := range req.Messages {
		cm := chatMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			var call chatToolCall
			call.ID = tc.ID
			call.Type = "function"
			call.Function.Name = tc.Name
			call.Function.Arguments = marshalArgs(tc.Arguments)
			cm.ToolCalls = append(cm.ToolCalls, call)
		}
		out.Messages = append(out.Messages, cm)
	}
	return out
}

func (c *HTTPClient) responsesBody(req Request) responsesRequest {
	out := responsesRequest{
		Model:       c.model,
		Temperature: ClampTemperature(req.Temperature),
	}
	if req.JSONMode {
		out.Text = &struct {
			Format formatSpec `json:"format"`
		}{Format: formatSpec{Type: "json_object"}}
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, funcDef{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	for _, m := range req.Messages {
		switch {
		case m.Role == RoleTool:
			out.Input = append(out.Input, responsesItem{
				Type:   "function_call_output",
				CallID: m.ToolCallID,
				Output: m.Content,
			})
		case m.Role == RoleAssistant && len(m.ToolCalls) > 0:
			if m.Content != "" {
				out.Input = append(out.Input, responsesItem{Role: RoleAssistant, Content: m.Content})
			}
			for _, tc := range m.ToolCalls {
				out.Input = append(out.Input, responsesItem{
					Type:      "function_call",
					CallID:    tc.ID,
					Name:      tc.Name,
					Arguments: marshalArgs(tc.Arguments),
				})
			}
		default:
			out.Input = append(out.Input, responsesItem{Role: m.Role, Content: m.Content})
		}
	}
	return out
}

func marshalArgs(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
