package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisIndex is an inverted index over Redis sets. Layout per logical index:
//
//	{prefix}:{index}:term:{token}  set of doc ids containing token
//	{prefix}:{index}:doc:{id}      hash of the stored searchable fields
//	{prefix}:{index}:terms:{id}    set of tokens of the doc (for deletion)
//	{prefix}:{index}:ids           set of all doc ids
type RedisIndex struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisIndex connects to Redis and verifies the connection.
func NewRedisIndex(addr, password string, db int, log *zap.Logger) (*RedisIndex, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("search index connected", zap.String("addr", addr), zap.Int("db", db))
	return &RedisIndex{rdb: rdb, prefix: "search"}, nil
}

// Close releases the underlying client.
func (x *RedisIndex) Close() error { return x.rdb.Close() }

func (x *RedisIndex) termKey(index, token string) string {
	return fmt.Sprintf("%s:%s:term:%s", x.prefix, index, token)
}

func (x *RedisIndex) docKey(index string, id int64) string {
	return fmt.Sprintf("%s:%s:doc:%d", x.prefix, index, id)
}

func (x *RedisIndex) docTermsKey(index string, id int64) string {
	return fmt.Sprintf("%s:%s:terms:%d", x.prefix, index, id)
}

func (x *RedisIndex) idsKey(index string) string {
	return fmt.Sprintf("%s:%s:ids", x.prefix, index)
}

// IndexDocument upserts a document: old term memberships are dropped, new
// ones added, and the field values stored for diagnostics.
func (x *RedisIndex) IndexDocument(ctx context.Context, index string, id int64, fields map[string]string) error {
	var tokens []string
	for _, v := range fields {
		tokens = append(tokens, tokenize(v)...)
	}
	old, err := x.rdb.SMembers(ctx, x.docTermsKey(index, id)).Result()
	if err != nil {
		return err
	}
	pipe := x.rdb.TxPipeline()
	for _, t := range old {
		pipe.SRem(ctx, x.termKey(index, t), id)
	}
	pipe.Del(ctx, x.docTermsKey(index, id), x.docKey(index, id))
	for _, t := range tokens {
		pipe.SAdd(ctx, x.termKey(index, t), id)
		pipe.SAdd(ctx, x.docTermsKey(index, id), t)
	}
	for k, v := range fields {
		pipe.HSet(ctx, x.docKey(index, id), k, v)
	}
	pipe.SAdd(ctx, x.idsKey(index), id)
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteDocument removes a document and its term memberships.
func (x *RedisIndex) DeleteDocument(ctx context.Context, index string, id int64) error {
	terms, err := x.rdb.SMembers(ctx, x.docTermsKey(index, id)).Result()
	if err != nil {
		return err
	}
	pipe := x.rdb.TxPipeline()
	for _, t := range terms {
		pipe.SRem(ctx, x.termKey(index, t), id)
	}
	pipe.Del(ctx, x.docTermsKey(index, id), x.docKey(index, id))
	pipe.SRem(ctx, x.idsKey(index), id)
	_, err = pipe.Exec(ctx)
	return err
}

// Query ranks documents by the number of query tokens they contain and pages
// through the ranked list. Ordering is stable: score descending, id ascending.
func (x *RedisIndex) Query(ctx context.Context, index, text string, offset, limit int) ([]int64, int64, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, 0, nil
	}
	scores := make(map[int64]int)
	for _, t := range tokens {
		ids, err := x.rdb.SMembers(ctx, x.termKey(index, t)).Result()
		if err != nil {
			return nil, 0, err
		}
		for _, raw := range ids {
			var id int64
			if _, err := fmt.Sscanf(raw, "%d", &id); err == nil {
				scores[id]++
			}
		}
	}
	ranked := make([]int64, 0, len(scores))
	for id := range scores {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	total := int64(len(ranked))
	if offset >= len(ranked) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end], total, nil
}

// CreateIndex is a no-op for Redis: keys are created on first write.
func (x *RedisIndex) CreateIndex(context.Context, string) error { return nil }
