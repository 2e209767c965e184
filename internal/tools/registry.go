package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/chris/copiloto/internal/llm"
)

// Handler runs a tool. The returned value is marshaled to JSON as the result.
type Handler func(ctx context.Context, args map[string]any) (any, error)

type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema, object type
	Handler     Handler
}

// Result answers one tool call. Content is always a JSON document; failures
// are encoded as {"error": "<message>"}.
type Result struct {
	ToolCallID string
	Name       string
	Content    string
}

type entry struct {
	tool   Tool
	schema *jsonschema.Resolved
}

// Registry maps tool names to implementations. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

// Register adds t, replacing any tool with the same name. The parameter
// schema is compiled up front so bad schemas fail at startup.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" || t.Handler == nil {
		return errors.New("tool needs a name and a handler")
	}
	if t.Parameters == nil {
		t.Parameters = llm.Obj(nil)
	}
	schema, err := compileSchema(t.Parameters)
	if err != nil {
		return fmt.Errorf("compiling schema for %s: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = entry{tool: t, schema: schema}
	return nil
}

// Definitions returns the provider-facing declarations sorted by name.
func (r *Registry) Definitions() []llm.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)

	defs := make([]llm.Tool, 0, len(names))
	for _, name := range names {
		t := r.tools[name].tool
		defs = append(defs, llm.Tool{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	return defs
}

// Invoke runs one call. It never fails: every outcome is a Result whose
// ToolCallID equals call.ID.
func (r *Registry) Invoke(ctx context.Context, call llm.ToolCall) (res Result) {
	res = Result{ToolCallID: call.ID, Name: call.Name}

	r.mu.RLock()
	e, ok := r.tools[call.Name]
	r.mu.RUnlock()
	if !ok {
		res.Content = errorContent(errToolNotImplemented)
		log.Printf("tools: unknown tool %q", call.Name)
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			log.Printf("tools: %s panicked: %v", call.Name, p)
			res.Content = errorContent(fmt.Errorf("panic: %v", p))
		}
	}()

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := e.schema.Validate(args); err != nil {
		log.Printf("tools: %s rejected arguments: %v", call.Name, err)
		res.Content = errorContent(ErrInvalidArguments)
		return res
	}

	out, err := e.tool.Handler(ctx, args)
	if err != nil {
		res.Content = errorContent(err)
	} else if b, mErr := json.Marshal(out); mErr != nil {
		res.Content = errorContent(fmt.Errorf("encoding result: %w", mErr))
	} else {
		res.Content = string(b)
	}
	log.Printf("tools: %s → %s", call.Name, truncate(res.Content, 200))
	return res
}

// InvokeAll runs every call concurrently and returns once all have a
// Result. Results keep the order of calls.
func (r *Registry) InvokeAll(ctx context.Context, calls []llm.ToolCall) []Result {
	results := make([]Result, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Go(func() {
			results[i] = r.Invoke(ctx, call)
		})
	}
	wg.Wait()
	return results
}

func errorContent(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()}) // map of strings cannot fail
	return string(b)
}

func compileSchema(params map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}
