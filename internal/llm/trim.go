package llm

// TrimMessages drops the oldest turns of a conversation until it fits in
// maxTokens. The budget covers messages only; callers subtract the system
// prompt and tool definitions beforehand.
//
// Turns are trimmed in groups: an assistant message that requested tools
// travels with the tool results that answer it, so a provider never sees a
// result whose call was dropped. The newest group is always kept even when it
// alone exceeds the budget.
func TrimMessages(messages []Message, maxTokens int) []Message {
	if len(messages) == 0 {
		return messages
	}

	groups := groupMessages(messages)
	total := 0
	for _, g := range groups {
		total += g.tokens
	}
	if total <= maxTokens {
		return messages
	}

	first := 0
	for first < len(groups)-1 && total > maxTokens {
		total -= groups[first].tokens
		first++
	}
	// A history that opens on an assistant turn confuses some providers.
	for first < len(groups)-1 && groups[first].messages[0].Role != RoleUser {
		first++
	}

	var trimmed []Message
	for _, g := range groups[first:] {
		trimmed = append(trimmed, g.messages...)
	}
	return trimmed
}

type messageGroup struct {
	messages []Message
	tokens   int
}

func groupMessages(messages []Message) []messageGroup {
	var groups []messageGroup
	for i := 0; i < len(messages); {
		g := messageGroup{messages: []Message{messages[i]}, tokens: EstimateMessageTokens(messages[i])}
		hasCalls := messages[i].Role == RoleAssistant && len(messages[i].ToolCalls) > 0
		i++
		if hasCalls {
			for i < len(messages) && messages[i].ToolCallID != "" {
				g.messages = append(g.messages, messages[i])
				g.tokens += EstimateMessageTokens(messages[i])
				i++
			}
		}
		groups = append(groups, g)
	}
	return groups
}
