package request

import (
	"time"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

// Meta はリクエスト共通のトレーシング情報を保持する。
type Meta struct {
	// RequestID はクライアントから渡された一意な識別子。
	RequestID string
	// Subject は認証済みのファシリテーター。
	Subject string
	// OccurredAt はリクエストを受け付けた時刻。
	OccurredAt time.Time
}

// ResolveRound はラウンド解決のリクエスト。
type ResolveRound struct {
	Meta     Meta
	Snapshot domain.RoundSnapshot
}

// Finalize は最終ラウンド後のスコア集計リクエスト。
type Finalize struct {
	Meta           Meta
	RoomCode       string
	Teams          []domain.FinalTeamSnapshot
	Investigations int
}
