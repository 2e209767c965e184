// Package notes keeps the free-text facts users ask the assistant to
// remember, keyed by user.
package notes

import (
	"context"
	"regexp"
	"strings"
	"time"
)

type Note struct {
	UserID    string
	Text      string
	CreatedAt time.Time
}

type Store interface {
	// List returns the user's live notes, oldest first.
	List(ctx context.Context, userID string) ([]Note, error)
	Append(ctx context.Context, userID, text string) error
}

// Pruner drops notes the Policy no longer allows.
type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int, error)
}

// Policy bounds what a store keeps. Zero values mean unbounded.
type Policy struct {
	MaxAge     time.Duration
	MaxPerUser int
}

// cutoff is the oldest creation time still live at now.
func (p Policy) cutoff(now time.Time) time.Time {
	if p.MaxAge <= 0 {
		return time.Time{}
	}
	return now.Add(-p.MaxAge)
}

var rememberRe = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:recordá|recorda|recuerda|acordate|acordáte|remember)\s+(?:que|that)\s+(.+)`)

// ExtractRemember pulls the fact out of "recordá que ..." style requests.
func ExtractRemember(text string) (string, bool) {
	m := rememberRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	fact := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), ".!¡?"))
	if fact == "" {
		return "", false
	}
	return fact, true
}
