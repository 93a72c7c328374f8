package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ConversationRow is the persisted form of one user's conversation
// state: an opaque JSON blob keyed by (user_id, conversation).  The
// conversation package owns the blob layout; this repository only
// moves bytes.
type ConversationRow struct {
	UserID       int64
	Conversation string
	Blob         []byte
}

// ConversationStateRepo persists conversation state rows.  The
// write-behind store in the conversation package batches its dirty
// states and flushes them here periodically.
type ConversationStateRepo struct {
	db *sql.DB
}

// NewConversationStateRepo constructs a ConversationStateRepo given
// a DB handle.
func NewConversationStateRepo(db *sql.DB) *ConversationStateRepo {
	return &ConversationStateRepo{db: db}
}

// Get loads one conversation state blob.  Returns (nil, nil) when no
// state is stored, so callers can distinguish "no conversation" from
// a database failure.
func (r *ConversationStateRepo) Get(ctx context.Context, userID int64, conversation string) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT blob FROM conversation_states WHERE user_id = ? AND conversation = ?`,
		userID, conversation).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// UpsertBatch writes a batch of dirty states in one statement.
// Passing an empty slice has no effect and returns nil.
func (r *ConversationStateRepo) UpsertBatch(ctx context.Context, rows []ConversationRow) error {
	if len(rows) == 0 {
		return nil
	}
	query := `INSERT INTO conversation_states (user_id, conversation, blob) VALUES `
	args := make([]any, 0, len(rows)*3)
	for i, row := range rows {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, row.UserID, row.Conversation, row.Blob)
	}
	query += ` ON DUPLICATE KEY UPDATE blob = VALUES(blob)`
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes one conversation state.  Deleting an absent row is
// not an error.
func (r *ConversationStateRepo) Delete(ctx context.Context, userID int64, conversation string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM conversation_states WHERE user_id = ? AND conversation = ?`,
		userID, conversation)
	return err
}

// ListAll returns every stored conversation state.  Used at startup
// to re-arm inactivity timers for conversations that survived a
// restart.
func (r *ConversationStateRepo) ListAll(ctx context.Context) ([]ConversationRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, conversation, blob FROM conversation_states`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ConversationRow
	for rows.Next() {
		var row ConversationRow
		if err := rows.Scan(&row.UserID, &row.Conversation, &row.Blob); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
