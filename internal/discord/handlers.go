package discord

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/copiloto/internal/llm"
)

const (
	maxMessageLen = 2000
	replyTimeout  = 60 * time.Second
	failureReply  = "No pude responder ahora."
)

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	// Only respond to DMs or when mentioned
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}

	s.ChannelTyping(m.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()
	reply := b.conv.respond(ctx, m.ChannelID, "discord:"+m.Author.ID, content)

	for _, chunk := range splitMessage(reply, maxMessageLen) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			log.Printf("discord: sending to %s: %v", m.ChannelID, err)
			return
		}
	}
}

// respond answers content in channel and records the exchange.
func (c *conversations) respond(ctx context.Context, channelID, userID, content string) string {
	c.mu.Lock()
	history := append([]llm.Message(nil), c.histories[channelID]...)
	c.mu.Unlock()

	turn := llm.Message{Role: llm.RoleUser, Content: content}
	reply, err := c.replier.Reply(ctx, c.profile, userID, append(history, turn))
	if err != nil {
		log.Printf("discord: reply for %s: %v", userID, err)
		return failureReply
	}

	history = append(history, turn, llm.Message{Role: llm.RoleAssistant, Content: reply})
	if c.maxTokens > 0 {
		history = llm.TrimMessages(history, c.maxTokens)
	}

	c.mu.Lock()
	c.histories[channelID] = history
	c.mu.Unlock()
	return reply
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

// splitMessage cuts s into chunks of at most maxLen bytes, preferring the
// last newline and never splitting a UTF-8 sequence.
func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end >= len(s) {
			end = len(s)
		} else {
			for end > 0 && !utf8.RuneStart(s[end]) {
				end--
			}
			if end == 0 { // no rune start, invalid UTF-8
				end = maxLen
			}
			if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
				end = idx + 1
			}
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
