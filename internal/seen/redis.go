package seen

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a view log backed by Redis sets, shared across API
// instances. One set per viewer (the posts they have seen) and one
// set per post (the unique viewers), both written on MarkSeen.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a view log over an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// viewerKey is the set of post IDs a viewer has seen.
func viewerKey(viewerID string) string {
	return "seen:viewer:" + viewerID
}

// postKey is the set of viewer IDs that have seen a post.
func postKey(postID string) string {
	return "seen:post:" + postID
}

// MarkSeen records that the viewer has seen the post. Both sets are
// written in one pipeline round trip.
func (s *RedisStore) MarkSeen(ctx context.Context, viewerID, postID string) error {
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, viewerKey(viewerID), postID)
	pipe.SAdd(ctx, postKey(postID), viewerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// SeenSet returns the set of post IDs the viewer has seen.
func (s *RedisStore) SeenSet(ctx context.Context, viewerID string) (map[string]struct{}, error) {
	ids, err := s.client.SMembers(ctx, viewerKey(viewerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("seen set: %w", err)
	}
	result := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		result[id] = struct{}{}
	}
	return result, nil
}

// ViewCount returns the number of unique viewers who have seen the
// post.
func (s *RedisStore) ViewCount(ctx context.Context, postID string) (int, error) {
	n, err := s.client.SCard(ctx, postKey(postID)).Result()
	if err != nil {
		return 0, fmt.Errorf("view count: %w", err)
	}
	return int(n), nil
}

// ViewCounts returns unique-viewer counts for a batch of posts in one
// pipeline round trip.
func (s *RedisStore) ViewCounts(ctx context.Context, postIDs []string) (map[string]int, error) {
	if len(postIDs) == 0 {
		return map[string]int{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(postIDs))
	for i, id := range postIDs {
		cmds[i] = pipe.SCard(ctx, postKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("view counts: %w", err)
	}

	counts := make(map[string]int, len(postIDs))
	for i, id := range postIDs {
		counts[id] = int(cmds[i].Val())
	}
	return counts, nil
}
