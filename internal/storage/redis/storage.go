package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plaza-world/plaza/internal/model"
	"github.com/plaza-world/plaza/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Banned word operations

func (s *Storage) SaveBannedWord(ctx context.Context, word model.BannedWord) error {
	data, err := json.Marshal(word)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, bannedWordsKey(), word.Word, data).Err()
}

func (s *Storage) DeleteBannedWord(ctx context.Context, word string) error {
	removed, err := s.client.HDel(ctx, bannedWordsKey(), word).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return model.ErrBannedWordNotFound
	}
	return nil
}

func (s *Storage) ListBannedWords(ctx context.Context) ([]model.BannedWord, error) {
	fields, err := s.client.HGetAll(ctx, bannedWordsKey()).Result()
	if err != nil {
		return nil, err
	}

	words := make([]model.BannedWord, 0, len(fields))
	for _, data := range fields {
		var word model.BannedWord
		if err := json.Unmarshal([]byte(data), &word); err != nil {
			return nil, err
		}
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool { return words[i].Word < words[j].Word })
	return words, nil
}

// Banned IP operations

func (s *Storage) SaveBannedIP(ctx context.Context, ip string) error {
	return s.client.SAdd(ctx, bannedIPsKey(), ip).Err()
}

func (s *Storage) DeleteBannedIP(ctx context.Context, ip string) error {
	return s.client.SRem(ctx, bannedIPsKey(), ip).Err()
}

func (s *Storage) ListBannedIPs(ctx context.Context) ([]string, error) {
	ips, err := s.client.SMembers(ctx, bannedIPsKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ips)
	return ips, nil
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// SETNX enforces username uniqueness at the storage layer
	created, err := s.client.SetNX(ctx, accountKey(account.Username), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrUsernameExists
	}
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, username string) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Drawing operations

func (s *Storage) SaveDrawing(ctx context.Context, drawing *model.Drawing) error {
	data, err := json.Marshal(drawing)
	if err != nil {
		return err
	}

	// Pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, drawingKey(drawing.ID), data, 0)
	pipe.SAdd(ctx, drawingIndexKey(), string(drawing.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetDrawing(ctx context.Context, id model.DrawingID) (*model.Drawing, error) {
	data, err := s.client.Get(ctx, drawingKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrDrawingNotFound
		}
		return nil, err
	}

	var drawing model.Drawing
	if err := json.Unmarshal(data, &drawing); err != nil {
		return nil, err
	}
	return &drawing, nil
}

func (s *Storage) DeleteDrawing(ctx context.Context, id model.DrawingID) error {
	removed, err := s.client.Del(ctx, drawingKey(id)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return model.ErrDrawingNotFound
	}
	return s.client.SRem(ctx, drawingIndexKey(), string(id)).Err()
}

func (s *Storage) ListDrawings(ctx context.Context, pendingOnly bool) ([]*model.Drawing, error) {
	ids, err := s.client.SMembers(ctx, drawingIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	drawings := make([]*model.Drawing, 0, len(ids))
	for _, id := range ids {
		drawing, err := s.GetDrawing(ctx, model.DrawingID(id))
		if err != nil {
			if errors.Is(err, model.ErrDrawingNotFound) {
				// Index entry outlived the drawing; skip it
				continue
			}
			return nil, err
		}
		if pendingOnly && drawing.Approved {
			continue
		}
		drawings = append(drawings, drawing)
	}
	sort.Slice(drawings, func(i, j int) bool {
		return drawings[i].CreatedAt.Before(drawings[j].CreatedAt)
	})
	return drawings, nil
}
