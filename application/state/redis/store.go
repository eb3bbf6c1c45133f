// Package redis は解決履歴を Redis のリストに保存する HistoryStore 実装。
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/application/state"
)

const keyPrefix = "inbox-kingdoms:rooms:"

// appendRetries は WATCH が競合したときの再試行回数。
const appendRetries = 3

// Connect は redis:// 形式の URL でも host:port でもクライアントを作る。
func Connect(_ context.Context, redisURL string) (*goredis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return goredis.NewClient(opt), nil
	}
	return goredis.NewClient(&goredis.Options{Addr: redisURL}), nil
}

// Store はルームごとに1本のリストへ RoundResolution を JSON で追記する。
type Store struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewStore は ttl > 0 のとき追記のたびにリストの有効期限を延ばす。
func NewStore(client goredis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(room string) string {
	return keyPrefix + room + ":rounds"
}

// Append は WATCH したリスト長でラウンド順を確かめてから追記する。
func (s *Store) Append(ctx context.Context, room string, res domain.RoundResolution) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal resolution: %w", err)
	}
	k := key(room)
	txf := func(tx *goredis.Tx) error {
		n, err := tx.LLen(ctx, k).Result()
		if err != nil {
			return err
		}
		if want := int(n) + 1; res.Round != want {
			return fmt.Errorf("%w: room %s expects round %d, got %d", state.ErrRoundOutOfOrder, room, want, res.Round)
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.RPush(ctx, k, payload)
			if s.ttl > 0 {
				p.Expire(ctx, k, s.ttl)
			}
			return nil
		})
		return err
	}

	for range appendRetries {
		err = s.client.Watch(ctx, txf, k)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("append room %s round %d: %w", room, res.Round, err)
}

func (s *Store) History(ctx context.Context, room string) ([]domain.RoundResolution, error) {
	raw, err := s.client.LRange(ctx, key(room), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := make([]domain.RoundResolution, 0, len(raw))
	for i, item := range raw {
		var res domain.RoundResolution
		if err := json.Unmarshal([]byte(item), &res); err != nil {
			return nil, fmt.Errorf("decode round %d: %w", i+1, err)
		}
		history = append(history, res)
	}
	return history, nil
}

var _ state.HistoryStore = (*Store)(nil)
