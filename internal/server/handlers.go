package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/chris/copiloto/internal/agent"
	"github.com/chris/copiloto/internal/intent"
	"github.com/chris/copiloto/internal/llm"
)

// ReplyUnavailable answers a failed reply request.
const ReplyUnavailable = "No pude responder ahora."

type textRequest struct {
	Text string `json:"text"`
}

type memoryRequest struct {
	UserID   string           `json:"userId"`
	Messages []inboundMessage `json:"messages"`
}

type inboundMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type replyBody struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleText(p agent.Profile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req textRequest
		if !decode(w, r, &req) {
			return
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing text"})
			return
		}

		reply, err := s.agent.Run(r.Context(), p, nil, text)
		if err != nil {
			logFailure(r, p.Name, err)
			writeJSON(w, http.StatusInternalServerError, replyBody{Reply: ReplyUnavailable})
			return
		}
		writeJSON(w, http.StatusOK, replyBody{Reply: reply})
	}
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing text"})
		return
	}

	in, err := s.classifier.Classify(r.Context(), text)
	if err != nil {
		logFailure(r, "intent", err)
		writeJSON(w, http.StatusInternalServerError, intent.Sentinel(intent.ErrorReply))
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleMemoryChat(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing userId"})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing messages"})
		return
	}

	msgs := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid message role"})
			return
		}
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := s.agent.Reply(r.Context(), s.profiles["memory"], req.UserID, msgs)
	if errors.Is(err, agent.ErrNoUserMessage) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Last message must be from the user"})
		return
	}
	if err != nil {
		logFailure(r, "memory", err)
		writeJSON(w, http.StatusInternalServerError, replyBody{Reply: ReplyUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, replyBody{Reply: reply})
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid JSON body"})
		return false
	}
	return true
}

// logFailure keeps upstream bodies in the server log only.
func logFailure(r *http.Request, op string, err error) {
	var pe *llm.ProviderError
	if errors.As(err, &pe) && pe.Body != "" {
		log.Printf("server: %s [%s] provider %s status %d: %s", op, requestIDFrom(r.Context()), pe.Provider, pe.StatusCode, pe.Body)
		return
	}
	log.Printf("server: %s [%s]: %v", op, requestIDFrom(r.Context()), err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: writing response: %v", err)
	}
}
