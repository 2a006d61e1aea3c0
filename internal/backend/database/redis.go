package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix      = "arconverter:session:"
	redisOperationLimit = 5 * time.Second

	fieldOriginal    = "original"
	fieldContentType = "contentType"
	fieldCreatedAt   = "createdAt"
	fieldProcessed   = "processed"
	fieldMarker      = "marker"
)

// RedisDatabase keeps each session in a hash and its video links in a second hash
// keyed by link id. Both keys share the session TTL, refreshed on every access.
type RedisDatabase struct {
	client     *redis.Client
	sessionTTL time.Duration
}

// NewRedisDatabase accepts a redis:// URL or a bare host:port
func NewRedisDatabase(connectionString string, sessionTTL time.Duration) (DatabaseService, error) {
	var options *redis.Options
	if strings.HasPrefix(connectionString, "redis://") || strings.HasPrefix(connectionString, "rediss://") {
		parsed, err := redis.ParseURL(connectionString)
		if err != nil {
			return nil, fmt.Errorf("invalid redis connection string: %w", err)
		}
		options = parsed
	} else {
		if connectionString == "" {
			return nil, fmt.Errorf("redis connection string must not be empty")
		}
		options = &redis.Options{Addr: connectionString}
	}

	return &RedisDatabase{
		client:     redis.NewClient(options),
		sessionTTL: sessionTTL,
	}, nil
}

func sessionKey(id string) string {
	return redisKeyPrefix + id
}

func linksKey(id string) string {
	return redisKeyPrefix + id + ":links"
}

func (r *RedisDatabase) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOperationLimit)
}

// CreateDatabase has no schema to create, it only checks the server answers
func (r *RedisDatabase) CreateDatabase() error {
	ctx, cancel := r.opContext()
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisDatabase) DoesDatabaseExist() bool {
	ctx, cancel := r.opContext()
	defer cancel()
	return r.client.Ping(ctx).Err() == nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) touch(ctx context.Context, pipe redis.Pipeliner, id string) {
	if r.sessionTTL <= 0 {
		return
	}
	pipe.Expire(ctx, sessionKey(id), r.sessionTTL)
	pipe.Expire(ctx, linksKey(id), r.sessionTTL)
}

func (r *RedisDatabase) sessionExists(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisDatabase) CreateSession(original []byte, contentType string) (*Session, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	session := &Session{
		ID:                  uuid.NewString(),
		OriginalImage:       original,
		OriginalContentType: contentType,
		CreatedAt:           time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(session.ID),
			fieldOriginal, original,
			fieldContentType, contentType,
			fieldCreatedAt, strconv.FormatInt(session.CreatedAt.UnixMilli(), 10))
		r.touch(ctx, pipe, session.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *RedisDatabase) ReplaceOriginalImage(id string, original []byte, contentType string) error {
	ctx, cancel := r.opContext()
	defer cancel()

	exists, err := r.sessionExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(id), fieldOriginal, original, fieldContentType, contentType)
		pipe.HDel(ctx, sessionKey(id), fieldProcessed, fieldMarker)
		r.touch(ctx, pipe, id)
		return nil
	})
	return err
}

func (r *RedisDatabase) GetSessionByID(id string) (*Session, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	fields, err := r.client.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	session := &Session{
		ID:                  id,
		OriginalImage:       []byte(fields[fieldOriginal]),
		OriginalContentType: fields[fieldContentType],
	}
	if ms, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		session.CreatedAt = time.UnixMilli(ms).UTC()
	}
	if raw, ok := fields[fieldProcessed]; ok {
		var processed ProcessedImage
		if err := json.Unmarshal([]byte(raw), &processed); err != nil {
			return nil, fmt.Errorf("failed to decode processed image: %w", err)
		}
		session.Processed = &processed
	}
	if raw, ok := fields[fieldMarker]; ok {
		var marker Marker
		if err := json.Unmarshal([]byte(raw), &marker); err != nil {
			return nil, fmt.Errorf("failed to decode marker: %w", err)
		}
		session.Marker = &marker
	}

	if _, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		r.touch(ctx, pipe, id)
		return nil
	}); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *RedisDatabase) DeleteSession(id string) error {
	ctx, cancel := r.opContext()
	defer cancel()

	n, err := r.client.Del(ctx, sessionKey(id), linksKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *RedisDatabase) SetProcessedImage(id string, processed *ProcessedImage) error {
	if processed == nil {
		return fmt.Errorf("processed image must not be nil")
	}
	encoded, err := json.Marshal(processed)
	if err != nil {
		return fmt.Errorf("failed to encode processed image: %w", err)
	}
	return r.updateSessionField(id, fieldProcessed, encoded, fieldMarker)
}

func (r *RedisDatabase) SetMarker(id string, marker *Marker) error {
	if marker == nil {
		return fmt.Errorf("marker must not be nil")
	}
	encoded, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("failed to encode marker: %w", err)
	}
	return r.updateSessionField(id, fieldMarker, encoded)
}

func (r *RedisDatabase) updateSessionField(id, field string, value []byte, drop ...string) error {
	ctx, cancel := r.opContext()
	defer cancel()

	exists, err := r.sessionExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(id), field, value)
		if len(drop) > 0 {
			pipe.HDel(ctx, sessionKey(id), drop...)
		}
		r.touch(ctx, pipe, id)
		return nil
	})
	return err
}

func (r *RedisDatabase) CreateVideoLink(sessionID string, link *VideoLink) (*VideoLink, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	exists, err := r.sessionExists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSessionNotFound
	}

	existing, err := r.readLinks(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	lastRank := ""
	for _, l := range existing {
		if l.Rank > lastRank {
			lastRank = l.Rank
		}
	}

	created := *link
	created.ID = uuid.NewString()
	created.Rank = Next(lastRank)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	created.CreatedAt = created.CreatedAt.Truncate(time.Millisecond)

	if err := r.writeLinks(ctx, sessionID, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *RedisDatabase) UpdateVideoLink(sessionID string, link *VideoLink) error {
	ctx, cancel := r.opContext()
	defer cancel()

	current, err := r.readLink(ctx, sessionID, link.ID)
	if err != nil {
		return err
	}
	current.Title = link.Title
	current.URL = link.URL
	current.Type = link.Type
	return r.writeLinks(ctx, sessionID, current)
}

func (r *RedisDatabase) DeleteVideoLink(sessionID, linkID string) error {
	ctx, cancel := r.opContext()
	defer cancel()

	n, err := r.client.HDel(ctx, linksKey(sessionID), linkID).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVideoLinkNotFound
	}
	return nil
}

func (r *RedisDatabase) GetVideoLinks(sessionID string) ([]*VideoLink, error) {
	ctx, cancel := r.opContext()
	defer cancel()

	links, err := r.readLinks(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Rank != links[j].Rank {
			return links[i].Rank < links[j].Rank
		}
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
	return links, nil
}

func (r *RedisDatabase) UpdateVideoLinkRanks(sessionID string, ranks map[string]string) error {
	if len(ranks) == 0 {
		return nil
	}
	ctx, cancel := r.opContext()
	defer cancel()

	updated := make([]*VideoLink, 0, len(ranks))
	for id, rank := range ranks {
		link, err := r.readLink(ctx, sessionID, id)
		if err != nil {
			return fmt.Errorf("rank update for %s: %w", id, err)
		}
		link.Rank = rank
		updated = append(updated, link)
	}
	return r.writeLinks(ctx, sessionID, updated...)
}

func (r *RedisDatabase) readLink(ctx context.Context, sessionID, linkID string) (*VideoLink, error) {
	raw, err := r.client.HGet(ctx, linksKey(sessionID), linkID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrVideoLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	var link VideoLink
	if err := json.Unmarshal([]byte(raw), &link); err != nil {
		return nil, fmt.Errorf("failed to decode video link %s: %w", linkID, err)
	}
	return &link, nil
}

func (r *RedisDatabase) readLinks(ctx context.Context, sessionID string) ([]*VideoLink, error) {
	values, err := r.client.HVals(ctx, linksKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	links := make([]*VideoLink, 0, len(values))
	for _, raw := range values {
		var link VideoLink
		if err := json.Unmarshal([]byte(raw), &link); err != nil {
			return nil, fmt.Errorf("failed to decode video link: %w", err)
		}
		links = append(links, &link)
	}
	return links, nil
}

func (r *RedisDatabase) writeLinks(ctx context.Context, sessionID string, links ...*VideoLink) error {
	values := make([]any, 0, len(links)*2)
	for _, link := range links {
		encoded, err := json.Marshal(link)
		if err != nil {
			return fmt.Errorf("failed to encode video link %s: %w", link.ID, err)
		}
		values = append(values, link.ID, encoded)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, linksKey(sessionID), values...)
		r.touch(ctx, pipe, sessionID)
		return nil
	})
	return err
}
