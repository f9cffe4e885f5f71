// Package history keeps a bounded per-session log of cart actions for
// debugging live sessions. Observability only: the mutation path never
// depends on it and recording failures are logged, not returned.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one recorded cart action.
type Entry struct {
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func key(sessionID string) string {
	return "history:" + sessionID
}

// NewRecorder keeps at most limit entries per session, evicted wholesale
// once the session has been quiet for ttl.
func NewRecorder(client *redis.Client, limit int, ttl time.Duration) *Recorder {
	return &Recorder{client: client, limit: limit, ttl: ttl}
}

type Recorder struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
}

// Record appends one action to the session's log, trimming to the bound and
// refreshing the eviction timer in a single round trip.
func (r *Recorder) Record(ctx context.Context, sessionID string, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry failed: %w", err)
	}

	k := key(sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, k, data)
	pipe.LTrim(ctx, k, int64(-r.limit), -1)
	pipe.Expire(ctx, k, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis history append failed: %w", err)
	}
	return nil
}

// List returns the session's recorded actions, oldest first.
func (r *Recorder) List(ctx context.Context, sessionID string) ([]Entry, error) {
	raw, err := r.client.LRange(ctx, key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis history read failed: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("unmarshal history entry failed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
