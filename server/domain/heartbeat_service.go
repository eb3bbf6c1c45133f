package domain

import (
	"context"
	"log/slog"
	"time"
)

// HeartbeatService は定期的にpingメッセージを送信する死活監視サービスです。
type HeartbeatService struct {
	pingInterval time.Duration
	room         string
	writeCh      chan<- []byte
}

// NewHeartbeatService は新しいHeartbeatServiceを生成します。
func NewHeartbeatService(pingInterval time.Duration, room string, writeCh chan<- []byte) *HeartbeatService {
	return &HeartbeatService{
		pingInterval: pingInterval,
		room:         room,
		writeCh:      writeCh,
	}
}

// Run はpingInterval間隔でpingメッセージをwriteChに送信します。
// ctxがキャンセルされると終了します。
func (h *HeartbeatService) Run(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case h.writeCh <- EncodePing(h.room):
				slog.DebugContext(ctx, "heartbeat: ping sent", "room", h.room)
			default:
				slog.WarnContext(ctx, "heartbeat: writeCh full, ping dropped", "room", h.room)
			}
		}
	}
}
