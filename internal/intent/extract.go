// Package intent turns a driver's utterance into one of a closed set of
// intents with slots.
package intent

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	Call      = "call"
	Message   = "message"
	Music     = "music"
	Navigate  = "navigate"
	SmallTalk = "smalltalk"
	General   = "general"
	Unknown   = "unknown"
)

const (
	// ParseFailedReply is used when the model output is not a JSON object.
	ParseFailedReply = "No entendí bien."
	// DefaultReply fills in a missing reply on an otherwise valid object.
	DefaultReply = "Listo."
	// ErrorReply answers when the provider call itself failed.
	ErrorReply = "Hubo un error."
)

type Intent struct {
	Intent string            `json:"intent"`
	Slots  map[string]string `json:"slots"`
	Reply  string            `json:"reply"`
}

// slotRule lists a slot and, for enumerated slots, its allowed values.
type slotRule map[string][]string

var slotRules = map[string]slotRule{
	Call:      {"contact": nil, "phone": nil},
	Message:   {"app": {"whatsapp", "sms"}, "to": nil, "body": nil},
	Music:     {"query": nil, "service": {"spotify", "apple_music"}},
	Navigate:  {"destination": nil},
	SmallTalk: {},
	General:   {"question": nil},
	Unknown:   {},
}

// Sentinel is the result for output that cannot be parsed at all.
func Sentinel(reply string) Intent {
	return Intent{Intent: Unknown, Slots: map[string]string{}, Reply: reply}
}

// Extract parses raw model output. It never fails: unparseable output gives
// Sentinel(ParseFailedReply) and each field of a parsed object falls back to
// its default on its own.
func Extract(raw string) Intent {
	obj, ok := cutObject(raw)
	if !ok {
		return Sentinel(ParseFailedReply)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil || fields == nil {
		return Sentinel(ParseFailedReply)
	}

	out := Intent{Intent: Unknown, Slots: map[string]string{}, Reply: DefaultReply}

	var name string
	if json.Unmarshal(fields["intent"], &name) == nil {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, known := slotRules[name]; known {
			out.Intent = name
		}
	}

	var slots map[string]any
	dec := json.NewDecoder(bytes.NewReader(fields["slots"]))
	dec.UseNumber()
	if dec.Decode(&slots) == nil {
		rules := slotRules[out.Intent]
		for key, v := range slots {
			allowed, ok := rules[key]
			if !ok {
				continue
			}
			s := slotText(v, allowed == nil)
			if s == "" {
				continue
			}
			if allowed != nil && !contains(allowed, s) {
				continue
			}
			out.Slots[key] = s
		}
	}

	var reply string
	if json.Unmarshal(fields["reply"], &reply) == nil && strings.TrimSpace(reply) != "" {
		out.Reply = strings.TrimSpace(reply)
	}
	return out
}

// slotText reads a slot value. Free-text slots also take bare numbers, which
// models emit for phone numbers, in their literal form.
func slotText(v any, freeText bool) string {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		if freeText {
			return v.String()
		}
	}
	return ""
}

// cutObject strips markdown fences and returns the outermost {...} span.
func cutObject(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))

	if strings.HasPrefix(s, "[") {
		return "", false
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return s[start : end+1], true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
