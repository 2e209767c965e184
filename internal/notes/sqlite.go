package notes

import (
	"context"
	"time"

	"github.com/chris/copiloto/internal/db"
)

// DBStore persists notes in sqlite.
type DBStore struct {
	db     *db.DB
	policy Policy
	now    func() time.Time
}

func NewDBStore(database *db.DB, policy Policy) *DBStore {
	return &DBStore{db: database, policy: policy, now: time.Now}
}

func (s *DBStore) Append(ctx context.Context, userID, text string) error {
	_, err := s.db.AppendNote(ctx, userID, text, s.now())
	return err
}

func (s *DBStore) List(ctx context.Context, userID string) ([]Note, error) {
	rows, err := s.db.ListNotes(ctx, userID, s.policy.cutoff(s.now()), s.policy.MaxPerUser)
	if err != nil {
		return nil, err
	}
	out := make([]Note, len(rows))
	for i, r := range rows {
		out[i] = Note{UserID: r.UserID, Text: r.Text, CreatedAt: r.CreatedAt}
	}
	return out, nil
}

func (s *DBStore) Prune(ctx context.Context, now time.Time) (int, error) {
	n, err := s.db.PruneNotes(ctx, s.policy.cutoff(now), s.policy.MaxPerUser)
	return int(n), err
}
