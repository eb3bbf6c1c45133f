package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/touka-aoi/inbox-kingdoms/application/state"
)

// Event はフィードに流すメッセージの形式です。
type Event struct {
	Type string          `json:"type"`
	Room string          `json:"room"`
	Data json.RawMessage `json:"data,omitempty"`
}

const EventPing = "ping"

// EncodePing はハートビート用のメッセージを返します。
func EncodePing(room string) []byte {
	b, _ := json.Marshal(Event{Type: EventPing, Room: room})
	return b
}

// Subscription はルーム1つ分の購読です。
type Subscription struct {
	room string
	ch   chan []byte
}

func (s *Subscription) C() <-chan []byte { return s.ch }
func (s *Subscription) Room() string     { return s.room }

// Hub はルームごとの購読者に解決イベントを配ります。
// 配信はブロックしないので、詰まっている購読者への分は捨てられます。
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Subscription]struct{}
	buffer int
	logger *slog.Logger
}

var _ state.Publisher = (*Hub)(nil)

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) Subscribe(room string) *Subscription {
	sub := &Subscription{room: room, ch: make(chan []byte, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.rooms[room] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Unsubscribe は購読を外してチャネルを閉じます。二度呼んでも安全です。
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.rooms[sub.room]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(h.rooms, sub.room)
	}
}

// Subscribers はルームの購読者数を返します。
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publish は key をルームコードとして扱います。
func (h *Hub) Publish(ctx context.Context, eventType string, payload []byte, key string) error {
	msg, err := json.Marshal(Event{Type: eventType, Room: key, Data: payload})
	if err != nil {
		return fmt.Errorf("encode feed event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[key] {
		select {
		case sub.ch <- msg:
		default:
			h.logger.WarnContext(ctx, "feed: subscriber full, event dropped", "room", key, "event", eventType)
		}
	}
	return nil
}
