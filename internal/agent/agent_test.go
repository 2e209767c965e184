package agent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chris/copiloto/internal/llm"
	"github.com/chris/copiloto/internal/notes"
	"github.com/chris/copiloto/internal/tools"
)

// fakeClient replays responses in order and records every request. Once the
// script runs out it keeps returning the last response.
type fakeClient struct {
	mu        sync.Mutex
	responses []llm.Response
	err       error
	requests  []llm.Request
}

func (f *fakeClient) Send(_ context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	i := len(f.requests) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func calcCall(id, expr string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: "calc", Arguments: map[string]any{"expression": expr}}
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry()
	if err := r.Register(tools.CalcTool()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return r
}

func TestRun_NoToolCalls_SingleProviderCall(t *testing.T) {
	fc := &fakeClient{responses: []llm.Response{llm.Final{Text: "  Hola.  "}}}
	a := New(fc, testRegistry(t), nil, 0)

	got, err := a.Run(context.Background(), Assistant, nil, "hola")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "Hola." {
		t.Errorf("expected trimmed reply, got %q", got)
	}
	if len(fc.requests) != 1 {
		t.Fatalf("expected exactly 1 provider call, got %d", len(fc.requests))
	}

	req := fc.requests[0]
	if req.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", req.Temperature)
	}
	if len(req.Tools) != 1 || req.Tools[0].Name != "calc" {
		t.Errorf("expected calc tool definition, got %+v", req.Tools)
	}
	if req.Messages[0].Role != llm.RoleSystem || req.Messages[0].Content != llm.AssistantPrompt {
		t.Errorf("expected system prompt first, got %+v", req.Messages[0])
	}
	if last := req.Messages[len(req.Messages)-1]; last.Role != llm.RoleUser || last.Content != "hola" {
		t.Errorf("expected user turn last, got %+v", last)
	}
}

func TestRun_ChatProfileSendsNoTools(t *testing.T) {
	fc := &fakeClient{responses: []llm.Response{llm.ToolCallsRequested{Calls: []llm.ToolCall{calcCall("c", "1+1")}}}}
	a := New(fc, testRegistry(t), nil, 0)

	got, err := a.Run(context.Background(), Chat, nil, "hola")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != DefaultFallback {
		t.Errorf("expected fallback, got %q", got)
	}
	if len(fc.requests) != 1 || len(fc.requests[0].Tools) != 0 {
		t.Errorf("expected one call without tools, got %d calls", len(fc.requests))
	}
}

func TestRun_ResolvesToolsAndEchoesIDs(t *testing.T) {
	fc := &fakeClient{responses: []llm.Response{
		llm.ToolCallsRequested{Calls: []llm.ToolCall{calcCall("a", "(2+3)*4/5"), calcCall("b", "2+3; rm -rf")}},
		llm.Final{Text: "Da 4."},
	}}
	a := New(fc, testRegistry(t), nil, 0)

	got, err := a.Run(context.Background(), Assistant, nil, "¿cuánto es?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "Da 4." {
		t.Errorf("unexpected reply %q", got)
	}
	if len(fc.requests) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(fc.requests))
	}

	msgs := fc.requests[1].Messages
	// system, user, assistant echo, two tool results
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages in follow-up, got %d", len(msgs))
	}
	if msgs[2].Role != llm.RoleAssistant || len(msgs[2].ToolCalls) != 2 {
		t.Errorf("expected assistant echo with 2 calls, got %+v", msgs[2])
	}
	for i, want := range []string{"a", "b"} {
		m := msgs[3+i]
		if m.Role != llm.RoleTool || m.ToolCallID != want {
			t.Errorf("result %d: expected tool message for %s, got %+v", i, want, m)
		}
	}
	if !strings.Contains(msgs[3].Content, `"result":4`) {
		t.Errorf("expected calc result, got %s", msgs[3].Content)
	}
	if msgs[4].Content != `{"error":"Expresión inválida"}` {
		t.Errorf("expected encoded failure, got %s", msgs[4].Content)
	}
}

func TestRun_RoundBudgetIsBounded(t *testing.T) {
	fc := &fakeClient{responses: []llm.Response{llm.ToolCallsRequested{Calls: []llm.ToolCall{calcCall("x", "1+1")}}}}
	a := New(fc, testRegistry(t), nil, 0)

	got, err := a.Run(context.Background(), Assistant, nil, "loop")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != DefaultFallback {
		t.Errorf("expected fallback after budget, got %q", got)
	}
	if n := len(fc.requests); n != 1+MaxToolRounds {
		t.Errorf("expected %d provider calls, got %d", 1+MaxToolRounds, n)
	}
}

func TestRun_CityNotFoundCompletesRound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"generationtime_ms":0.3}`))
	}))
	defer srv.Close()

	r := tools.NewRegistry()
	if err := r.Register(tools.WeatherTool(tools.NewOpenMeteo(srv.URL, srv.URL, time.Second))); err != nil {
		t.Fatalf("Register: %v", err)
	}
	fc := &fakeClient{responses: []llm.Response{
		llm.ToolCallsRequested{Calls: []llm.ToolCall{{ID: "w", Name: "getWeather", Arguments: map[string]any{"city": "Zzyzxville"}}}},
		llm.Final{Text: "No encontré esa ciudad."},
	}}

	got, err := New(fc, r, nil, 0).Run(context.Background(), Assistant, nil, "clima en Zzyzxville")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "No encontré esa ciudad." {
		t.Errorf("unexpected reply %q", got)
	}
	result := fc.requests[1].Messages[3]
	if result.ToolCallID != "w" || result.Content != `{"error":"Ciudad no encontrada"}` {
		t.Errorf("unexpected tool result %+v", result)
	}
}

func TestRun_ProviderError(t *testing.T) {
	upstream := &llm.ProviderError{Provider: "openai", StatusCode: 500, Body: "secret"}
	fc := &fakeClient{err: upstream}
	_, err := New(fc, nil, nil, 0).Run(context.Background(), Chat, nil, "hola")
	var pe *llm.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected wrapped ProviderError, got %v", err)
	}
}

func TestRun_CustomFallback(t *testing.T) {
	fc := &fakeClient{responses: []llm.Response{llm.Final{Text: "   "}}}
	p := Chat
	p.Fallback = "Sin respuesta."
	got, _ := New(fc, nil, nil, 0).Run(context.Background(), p, nil, "hola")
	if got != "Sin respuesta." {
		t.Errorf("expected custom fallback, got %q", got)
	}
}

func TestRun_ShapeOverride(t *testing.T) {
	fc := &fakeClient{responses: []llm.Response{llm.Final{Text: "ok"}}}
	p := Chat
	p.Shape = llm.ShapeResponses
	New(fc, nil, nil, 0).Run(context.Background(), p, nil, "hola")
	if fc.requests[0].Shape != llm.ShapeResponses {
		t.Errorf("expected responses shape, got %q", fc.requests[0].Shape)
	}
}

func TestReply_RemembersAndInjectsNotes(t *testing.T) {
	store := notes.NewMemoryStore(notes.Policy{})
	fc := &fakeClient{responses: []llm.Response{llm.Final{Text: "Anotado."}}}
	a := New(fc, testRegistry(t), store, 8000)

	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: "hola"},
		{Role: llm.RoleAssistant, Content: "¡Hola!"},
		{Role: llm.RoleUser, Content: "Recordá que me gusta el jazz"},
	}
	got, err := a.Reply(context.Background(), Memory, "u1", msgs)
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != "Anotado." {
		t.Errorf("unexpected reply %q", got)
	}

	saved, _ := store.List(context.Background(), "u1")
	if len(saved) != 1 || saved[0].Text != "me gusta el jazz" {
		t.Fatalf("expected note saved, got %+v", saved)
	}
	sys := fc.requests[0].Messages[0].Content
	if !strings.Contains(sys, llm.NotesHeader) || !strings.Contains(sys, "- me gusta el jazz") {
		t.Errorf("expected notes in system prompt, got %q", sys)
	}
	if n := len(fc.requests[0].Messages); n != 4 {
		t.Errorf("expected system + 3 turns, got %d", n)
	}
}

func TestReply_NotesAreScopedToUser(t *testing.T) {
	store := notes.NewMemoryStore(notes.Policy{})
	store.Append(context.Background(), "other", "secreto")
	fc := &fakeClient{responses: []llm.Response{llm.Final{Text: "ok"}}}

	New(fc, nil, store, 0).Reply(context.Background(), Memory, "u1", []llm.Message{{Role: llm.RoleUser, Content: "hola"}})
	if sys := fc.requests[0].Messages[0].Content; strings.Contains(sys, "secreto") {
		t.Errorf("leaked another user's note: %q", sys)
	}
}

func TestReply_RequiresUserMessage(t *testing.T) {
	a := New(&fakeClient{}, nil, nil, 0)
	for _, msgs := range [][]llm.Message{
		nil,
		{{Role: llm.RoleAssistant, Content: "hola"}},
		{{Role: llm.RoleUser, Content: "  "}},
	} {
		if _, err := a.Reply(context.Background(), Memory, "u", msgs); !errors.Is(err, ErrNoUserMessage) {
			t.Errorf("expected ErrNoUserMessage for %+v, got %v", msgs, err)
		}
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	if got := BuildSystemPrompt("base", nil); got != "base" {
		t.Errorf("expected base unchanged, got %q", got)
	}
	got := BuildSystemPrompt("base", []notes.Note{{Text: "uno"}, {Text: "dos"}})
	want := "base\n\n" + llm.NotesHeader + "\n- uno\n- dos"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProfiles(t *testing.T) {
	ps := Profiles()
	if len(ps) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(ps))
	}
	if ps["chat"].Tools || !ps["assistant"].Tools || !ps["memory"].Memory {
		t.Errorf("unexpected profile flags: %+v", ps)
	}
}
