package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrInitializationFailed はフィードエンドポイントの初期化に失敗した場合に返されるエラーです。
	ErrInitializationFailed = errors.New("failed to initialize feed endpoint")
	errDisconnected         = errors.New("feed client disconnected")
)

// FeedEndpoint は1本の接続にルームの解決イベントを流し続けます。
// クライアントからの受信内容は読み捨て、読み込みエラーを切断とみなします。
type FeedEndpoint struct {
	transport    Transport
	hub          *Hub
	room         string
	pingInterval time.Duration

	writeCh chan []byte
	closed  atomic.Bool
}

func NewFeedEndpoint(transport Transport, hub *Hub, room string, pingInterval time.Duration) (*FeedEndpoint, error) {
	if transport == nil || hub == nil || room == "" {
		return nil, ErrInitializationFailed
	}
	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}
	return &FeedEndpoint{
		transport:    transport,
		hub:          hub,
		room:         room,
		pingInterval: pingInterval,
		writeCh:      make(chan []byte, 256),
	}, nil
}

// Run は接続が切れるか ctx がキャンセルされるまでブロックします。
func (e *FeedEndpoint) Run(ctx context.Context) error {
	sub := e.hub.Subscribe(e.room)
	defer e.hub.Unsubscribe(sub)
	defer e.close()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return e.readLoop(ctx)
	})
	eg.Go(func() error {
		return e.writeLoop(ctx)
	})
	eg.Go(func() error {
		e.subscribeLoop(ctx, sub.C())
		return nil
	})
	eg.Go(func() error {
		NewHeartbeatService(e.pingInterval, e.room, e.writeCh).Run(ctx)
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, errDisconnected) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (e *FeedEndpoint) readLoop(ctx context.Context) error {
	for {
		if _, err := e.transport.Read(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.DebugContext(ctx, "feed: read failed", "room", e.room, "err", err)
			return errDisconnected
		}
	}
}

func (e *FeedEndpoint) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-e.writeCh:
			if err := e.transport.Write(ctx, data); err != nil {
				return err
			}
		}
	}
}

// subscribeLoop はハブからのメッセージをwriteChに転送します。
func (e *FeedEndpoint) subscribeLoop(ctx context.Context, msgCh <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			select {
			case e.writeCh <- msg:
			default:
				slog.WarnContext(ctx, "feed: writeCh full, message dropped", "room", e.room)
			}
		}
	}
}

func (e *FeedEndpoint) close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	_ = e.transport.Close(CloseNormal, "")
}
