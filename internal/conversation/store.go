package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

// Persister is the storage backend for conversation state blobs.
// Implemented by repository.ConversationStateRepo.
type Persister interface {
	Get(ctx context.Context, userID int64, conversation string) ([]byte, error)
	UpsertBatch(ctx context.Context, rows []repository.ConversationRow) error
	Delete(ctx context.Context, userID int64, conversation string) error
	ListAll(ctx context.Context) ([]repository.ConversationRow, error)
}

type key struct {
	userID       int64
	conversation string
}

// Store is the durable conversation store.  Reads go through an
// in-memory cache backed by the database; writes are batched: Save
// only marks the record dirty, and a background flush loop persists
// dirty records every flush interval.  A crash therefore loses at
// most one flush interval of dialog progress, which is the
// documented durability bound.  Clear is the exception and writes
// through immediately, so a finished or cancelled conversation can
// never resurrect from a stale row.
//
// A single user's conversation is effectively single-writer (one
// Telegram chat processes one update at a time); the mutex only
// guards cross-user access to the shared maps.
type Store struct {
	persister Persister
	interval  time.Duration
	logger    zerolog.Logger

	mu       sync.Mutex
	cache    map[key]*Record
	dirty    map[key]struct{}
	flushing map[key]struct{} // keys snapshotted by the flush in progress
	cleared  map[key]struct{} // keys Cleared while that flush was in flight
}

// NewStore constructs a Store flushing dirty records every interval.
func NewStore(p Persister, interval time.Duration, logger zerolog.Logger) *Store {
	return &Store{
		persister: p,
		interval:  interval,
		logger:    logger,
		cache:     make(map[key]*Record),
		dirty:     make(map[key]struct{}),
		flushing:  make(map[key]struct{}),
		cleared:   make(map[key]struct{}),
	}
}

// Load returns the user's state for a conversation, or nil when none
// exists.  A cache miss falls through to the database, which is how
// in-progress dialogs survive a process restart.
func (s *Store) Load(ctx context.Context, userID int64, conversation string) (*Record, error) {
	k := key{userID, conversation}
	s.mu.Lock()
	if rec, ok := s.cache[k]; ok {
		s.mu.Unlock()
		return rec, nil
	}
	s.mu.Unlock()

	blob, err := s.persister.Get(ctx, userID, conversation)
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}
	if blob == nil {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	s.mu.Lock()
	s.cache[k] = &rec
	s.mu.Unlock()
	return &rec, nil
}

// Save caches the record and marks it dirty for the next flush.
func (s *Store) Save(rec *Record) {
	rec.UpdatedAt = time.Now().UTC()
	k := key{rec.UserID, rec.Conversation}
	s.mu.Lock()
	s.cache[k] = rec
	s.dirty[k] = struct{}{}
	s.mu.Unlock()
}

// Clear removes the conversation state from the cache and, write-
// through, from the database.  A flush may already have snapshotted
// this record and be mid-batch; the key is noted so Flush re-deletes
// the row after the batch lands instead of resurrecting it.
func (s *Store) Clear(ctx context.Context, userID int64, conversation string) error {
	k := key{userID, conversation}
	s.mu.Lock()
	delete(s.cache, k)
	delete(s.dirty, k)
	if _, inFlight := s.flushing[k]; inFlight {
		s.cleared[k] = struct{}{}
	}
	s.mu.Unlock()
	return s.persister.Delete(ctx, userID, conversation)
}

// Flush persists all dirty records in one batch.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	rows := make([]repository.ConversationRow, 0, len(s.dirty))
	for k := range s.dirty {
		rec, ok := s.cache[k]
		if !ok {
			continue
		}
		blob, err := json.Marshal(rec)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("encode conversation state: %w", err)
		}
		rows = append(rows, repository.ConversationRow{
			UserID:       k.userID,
			Conversation: k.conversation,
			Blob:         blob,
		})
	}
	s.dirty = make(map[key]struct{})
	s.flushing = make(map[key]struct{}, len(rows))
	for _, row := range rows {
		s.flushing[key{row.UserID, row.Conversation}] = struct{}{}
	}
	s.mu.Unlock()

	err := s.persister.UpsertBatch(ctx, rows)

	s.mu.Lock()
	cleared := s.cleared
	s.cleared = make(map[key]struct{})
	s.flushing = make(map[key]struct{})
	if err != nil {
		// Re-mark the records dirty so the next flush retries them,
		// except those Cleared while the batch was in flight.
		for _, row := range rows {
			k := key{row.UserID, row.Conversation}
			if _, gone := cleared[k]; gone {
				continue
			}
			s.dirty[k] = struct{}{}
		}
		s.mu.Unlock()
		return fmt.Errorf("flush conversation states: %w", err)
	}
	s.mu.Unlock()

	// The batch re-inserted rows for conversations that ended while
	// it was in flight; delete them again so a finished dialog never
	// comes back after a restart.
	for k := range cleared {
		if err := s.persister.Delete(ctx, k.userID, k.conversation); err != nil {
			return fmt.Errorf("re-delete cleared conversation state: %w", err)
		}
	}
	return nil
}

// Run flushes dirty records every interval until ctx is cancelled,
// then performs a final flush so shutdown does not widen the loss
// window.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Flush(flushCtx); err != nil {
				s.logger.Error().Err(err).Msg("final conversation flush failed")
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.Error().Err(err).Msg("conversation flush failed")
			}
		}
	}
}

// Restore returns every persisted conversation record, used at
// startup to re-arm inactivity timers after a restart.
func (s *Store) Restore(ctx context.Context) ([]*Record, error) {
	rows, err := s.persister.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("restore conversation states: %w", err)
	}
	out := make([]*Record, 0, len(rows))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		var rec Record
		if err := json.Unmarshal(row.Blob, &rec); err != nil {
			s.logger.Warn().
				Int64("user_id", row.UserID).
				Str("conversation", row.Conversation).
				Err(err).
				Msg("skipping undecodable conversation state")
			continue
		}
		s.cache[key{row.UserID, row.Conversation}] = &rec
		out = append(out, &rec)
	}
	return out, nil
}
