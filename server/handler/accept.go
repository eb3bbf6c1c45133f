package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	adapterwebsocket "github.com/touka-aoi/inbox-kingdoms/server/adapter/websocket"
	"github.com/touka-aoi/inbox-kingdoms/server/domain"
)

// FeedHandler はルームの解決イベントを websocket で配信します。
type FeedHandler struct {
	hub            *domain.Hub
	pingInterval   time.Duration
	originPatterns []string
}

// NewFeedHandler は originPatterns が空なら Origin チェックをしない。
func NewFeedHandler(hub *domain.Hub, pingInterval time.Duration, originPatterns []string) *FeedHandler {
	return &FeedHandler{hub: hub, pingInterval: pingInterval, originPatterns: originPatterns}
}

func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	room := chi.URLParam(r, "room")
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.originPatterns,
		InsecureSkipVerify: len(h.originPatterns) == 0,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	transport := adapterwebsocket.NewTransportFrom(conn)
	endpoint, err := domain.NewFeedEndpoint(transport, h.hub, room, h.pingInterval)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create feed endpoint", "err", err)
		_ = transport.Close(int32(websocket.StatusInternalError), "")
		return
	}
	slog.DebugContext(ctx, "accepted feed connection", "room", room)
	if err := endpoint.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to run feed endpoint", "room", room, "err", err)
	}
}
