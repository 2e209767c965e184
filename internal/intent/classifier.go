package intent

import (
	"context"
	"fmt"
	"log"

	"github.com/chris/copiloto/internal/llm"
)

const temperature = 0.2

type Classifier struct {
	client llm.Client
	shape  string
}

func NewClassifier(client llm.Client, shape string) *Classifier {
	return &Classifier{client: client, shape: shape}
}

// Classify makes one JSON-mode provider call without tools. Only provider
// failures are returned as errors; bad output degrades inside Extract.
func (c *Classifier) Classify(ctx context.Context, text string) (Intent, error) {
	resp, err := c.client.Send(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: llm.IntentPrompt},
			{Role: llm.RoleUser, Content: text},
		},
		Temperature: temperature,
		JSONMode:    true,
		Shape:       c.shape,
	})
	if err != nil {
		return Intent{}, fmt.Errorf("classifying intent: %w", err)
	}

	final, ok := resp.(llm.Final)
	if !ok {
		log.Printf("intent: model requested tools in JSON mode; treating as unparseable")
		return Sentinel(ParseFailedReply), nil
	}
	return Extract(final.Text), nil
}
