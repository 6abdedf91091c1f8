package search

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/its-pratyushpandey/NextHire-backend/internal/metrics"
	"github.com/its-pratyushpandey/NextHire-backend/internal/models"
)

const (
	hitTTL   = 7 * 24 * time.Hour
	indexTTL = 7 * 24 * time.Hour
)

// wordRegex matches word characters for search indexing.
var wordRegex = regexp.MustCompile(`\w+`)

// Hit is a self-contained search result. Hits are denormalized into
// Redis at index time so queries never touch the message store.
type Hit struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Preview   string    `json:"preview"`
	Timestamp time.Time `json:"timestamp"`
}

// Index maintains a word-level inverted index over message bodies.
// Indexing is best effort: the index expires, and a miss here never
// fails a post.
type Index struct {
	client *redis.Client
}

// NewIndex wraps an existing Redis client.
func NewIndex(client *redis.Client) *Index {
	return &Index{client: client}
}

func wordKey(word string) string {
	return fmt.Sprintf("search:word:%s", word)
}

func hitKey(msgID string) string {
	return fmt.Sprintf("search:hit:%s", msgID)
}

// IndexMessage tokenizes the message body and records the message
// under each distinct word. Messages without text are skipped.
func (ix *Index) IndexMessage(ctx context.Context, msg *models.ChatMessage) error {
	if msg.Text == "" {
		return nil
	}

	start := time.Now()
	defer func() { metrics.RedisLatency.Observe(time.Since(start).Seconds()) }()

	hit := Hit{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Preview:   preview(msg.Text),
		Timestamp: msg.Timestamp,
	}
	data, err := json.Marshal(hit)
	if err != nil {
		return err
	}
	if err := ix.client.Set(ctx, hitKey(msg.ID), data, hitTTL).Err(); err != nil {
		return err
	}

	words := wordRegex.FindAllString(strings.ToLower(msg.Text), -1)
	seen := make(map[string]bool)
	for _, word := range words {
		if len(word) < 3 || seen[word] {
			continue
		}
		seen[word] = true

		key := wordKey(word)
		ix.client.ZAdd(ctx, key, redis.Z{
			Score:  float64(msg.Timestamp.UnixMilli()),
			Member: fmt.Sprintf("%s:%s", msg.RoomID, msg.ID),
		})
		ix.client.Expire(ctx, key, indexTTL)
	}

	return nil
}

// Search returns recent messages matching every word in the query,
// newest first. roomFilter, when set, restricts hits to one room.
func (ix *Index) Search(ctx context.Context, query string, limit int, roomFilter string) ([]Hit, error) {
	metrics.SearchQueries.Inc()

	words := wordRegex.FindAllString(strings.ToLower(query), -1)
	tokens := words[:0]
	for _, w := range words {
		if len(w) >= 3 {
			tokens = append(tokens, w)
		}
	}
	if len(tokens) == 0 {
		return []Hit{}, nil
	}

	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = wordKey(t)
	}

	var refs []string
	if len(keys) == 1 {
		var err error
		refs, err = ix.client.ZRevRangeByScore(ctx, keys[0], &redis.ZRangeBy{
			Min:   "-inf",
			Max:   "+inf",
			Count: int64(limit * 3),
		}).Result()
		if err != nil {
			return nil, err
		}
	} else {
		tempKey := fmt.Sprintf("search:temp:%d", time.Now().UnixNano())
		if err := ix.client.ZInterStore(ctx, tempKey, &redis.ZStore{
			Keys:      keys,
			Aggregate: "MIN",
		}).Err(); err != nil {
			return nil, err
		}
		ix.client.Expire(ctx, tempKey, 10*time.Second)

		var err error
		refs, err = ix.client.ZRevRangeByScore(ctx, tempKey, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   "+inf",
			Count: int64(limit * 3),
		}).Result()
		ix.client.Del(ctx, tempKey)
		if err != nil {
			return nil, err
		}
	}

	hits := make([]Hit, 0, limit)
	for _, ref := range refs {
		parts := strings.SplitN(ref, ":", 2)
		if len(parts) != 2 {
			continue
		}
		roomID, msgID := parts[0], parts[1]

		if roomFilter != "" && roomID != roomFilter {
			continue
		}

		raw, err := ix.client.Get(ctx, hitKey(msgID)).Bytes()
		if err != nil {
			continue // hit expired
		}
		var h Hit
		if err := json.Unmarshal(raw, &h); err != nil {
			continue
		}

		hits = append(hits, h)
		if len(hits) >= limit {
			break
		}
	}

	return hits, nil
}

// preview trims the indexed body to a short excerpt.
func preview(text string) string {
	const max = 120
	if len(text) <= max {
		return text
	}
	return text[:max]
}
