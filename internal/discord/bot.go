package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/chris/copiloto/internal/agent"
	"github.com/chris/copiloto/internal/llm"
)

// Replier answers a conversation for a user. *agent.Agent implements it.
type Replier interface {
	Reply(ctx context.Context, p agent.Profile, userID string, messages []llm.Message) (string, error)
}

type Bot struct {
	session *discordgo.Session
	conv    *conversations
}

func NewBot(token string, r Replier, p agent.Profile, maxHistoryTokens int) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := &Bot{session: s, conv: newConversations(r, p, maxHistoryTokens)}
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	log.Printf("discord: connected as %s", s.State.User.Username)
	return bot, nil
}

func (b *Bot) Close() {
	b.session.Close()
}

// conversations keeps a trimmed history per channel and routes each turn
// through the replier.
type conversations struct {
	replier   Replier
	profile   agent.Profile
	maxTokens int

	mu        sync.Mutex
	histories map[string][]llm.Message
}

func newConversations(r Replier, p agent.Profile, maxTokens int) *conversations {
	return &conversations{replier: r, profile: p, maxTokens: maxTokens, histories: make(map[string][]llm.Message)}
}
