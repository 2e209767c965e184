package db

import (
	"context"
	"fmt"
	"time"
)

// Fixed width so created_at compares correctly as text.
const timeLayout = "2006-01-02 15:04:05.000"

type Note struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendNote stores a note for userID.
func (d *DB) AppendNote(ctx context.Context, userID, text string, at time.Time) (int64, error) {
	res, err := d.conn.ExecContext(ctx,
		"INSERT INTO notes (user_id, text, created_at) VALUES (?, ?, ?)",
		userID, text, formatTime(at),
	)
	if err != nil {
		return 0, fmt.Errorf("appending note: %w", err)
	}
	return res.LastInsertId()
}

// ListNotes returns userID's notes oldest first. A zero since disables the age
// filter; limit <= 0 disables the cap, otherwise only the newest limit notes
// are returned.
func (d *DB) ListNotes(ctx context.Context, userID string, since time.Time, limit int) ([]Note, error) {
	query := "SELECT id, user_id, text, created_at FROM notes WHERE user_id = ?"
	args := []any{userID}
	if !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, formatTime(since))
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		var created string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Text, &created); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		if n.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing note time %q: %w", created, err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}

	for i, j := 0, len(notes)-1; i < j; i, j = i+1, j-1 {
		notes[i], notes[j] = notes[j], notes[i]
	}
	return notes, nil
}

// PruneNotes deletes notes created before olderThan (when non-zero) and, when
// keepPerUser > 0, all but the newest keepPerUser notes of each user.
func (d *DB) PruneNotes(ctx context.Context, olderThan time.Time, keepPerUser int) (int64, error) {
	var total int64
	if !olderThan.IsZero() {
		res, err := d.conn.ExecContext(ctx, "DELETE FROM notes WHERE created_at < ?", formatTime(olderThan))
		if err != nil {
			return 0, fmt.Errorf("pruning expired notes: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if keepPerUser > 0 {
		res, err := d.conn.ExecContext(ctx, `DELETE FROM notes WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY id DESC) AS rn FROM notes
			) WHERE rn > ?
		)`, keepPerUser)
		if err != nil {
			return total, fmt.Errorf("pruning surplus notes: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
