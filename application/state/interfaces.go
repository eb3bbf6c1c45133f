package state

import (
	"context"
	"errors"
	"time"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

//go:generate go tool mockgen -destination=./mocks/state_mock.go -package=mocks . HistoryStore,Publisher

// ErrRoundOutOfOrder は履歴の末尾に続かないラウンドを追記しようとしたときに返る。
var ErrRoundOutOfOrder = errors.New("state: round out of order")

// HistoryStore はルームごとのラウンド解決履歴を保持する。
// Append はラウンド n の解決が追記されるまでラウンド n+1 を受け付けない。
type HistoryStore interface {
	Append(ctx context.Context, room string, res domain.RoundResolution) error
	History(ctx context.Context, room string) ([]domain.RoundResolution, error)
}

type MetricsRecorder interface {
	RecordLatency(ctx context.Context, endpoint string, duration time.Duration)
	IncrementCounter(ctx context.Context, name string, delta int)
}

// Publisher は解決結果を外部に配信する。key は同じルームのイベントを同じパーティションに寄せるために使う。
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, key string) error
}

// イベント種別。
const (
	EventRoundResolved = "round.resolved"
	EventGameFinalized = "game.finalized"
)

// Publishers は複数の Publisher に順に配信する。失敗があっても残りへの配信は続け、エラーはまとめて返す。
type Publishers []Publisher

func (ps Publishers) Publish(ctx context.Context, eventType string, payload []byte, key string) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, eventType, payload, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Publisher = Publishers(nil)
