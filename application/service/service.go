package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/application/request"
	"github.com/touka-aoi/inbox-kingdoms/application/state"
)

var (
	ErrInvalidSnapshot = errors.New("service: invalid snapshot")
)

// Resolver は1ラウンドの解決を行う。resolution.Orchestrator が実装する。
type Resolver interface {
	Resolve(ctx context.Context, snap domain.RoundSnapshot) (domain.ResolutionResults, error)
}

// Scorer は履歴から最終スコアを出す。scoring.Aggregator が実装する。
type Scorer interface {
	Aggregate(in domain.FinalScoreInput) domain.FinalScoreOutput
}

type Clock interface {
	Now() time.Time
	Since(time.Time) time.Duration
}

type Validator interface {
	ResolveRound(request.ResolveRound) error
	Finalize(request.Finalize) error
}

// Dependencies は ResolutionService の依存一覧。Logger と NewID は省略できる。
type Dependencies struct {
	Resolver  Resolver
	Scorer    Scorer
	History   state.HistoryStore
	Publisher state.Publisher
	Metrics   state.MetricsRecorder
	Clock     Clock
	Validator Validator
	Logger    *slog.Logger
	NewID     func() string
}

// ResolutionService はラウンド解決を履歴に追記し、結果を配信する。
type ResolutionService struct {
	resolver  Resolver
	scorer    Scorer
	history   state.HistoryStore
	publisher state.Publisher
	metrics   state.MetricsRecorder
	clock     Clock
	validate  Validator
	logger    *slog.Logger
	newID     func() string
}

func NewResolutionService(d Dependencies) (*ResolutionService, error) {
	if d.Resolver == nil || d.Scorer == nil || d.History == nil || d.Publisher == nil ||
		d.Metrics == nil || d.Clock == nil || d.Validator == nil {
		return nil, fmt.Errorf("service: missing dependencies: resolver=%v scorer=%v history=%v publisher=%v metrics=%v clock=%v validator=%v",
			d.Resolver, d.Scorer, d.History, d.Publisher, d.Metrics, d.Clock, d.Validator)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return &ResolutionService{
		resolver:  d.Resolver,
		scorer:    d.Scorer,
		history:   d.History,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		clock:     d.Clock,
		validate:  d.Validator,
		logger:    d.Logger,
		newID:     d.NewID,
	}, nil
}

// ResolveRound はスナップショットを解決し、履歴に追記してから round.resolved を配信する。
// 前のラウンドが履歴にない場合は解決前に ErrRoundOutOfOrder を返す。
func (s *ResolutionService) ResolveRound(ctx context.Context, req request.ResolveRound) (domain.RoundResolution, error) {
	start := s.clock.Now()
	defer s.record("resolve_round", start)

	if err := s.validate.ResolveRound(req); err != nil {
		return domain.RoundResolution{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	snap := req.Snapshot
	room := snap.RoomCode

	history, err := s.history.History(ctx, room)
	if err != nil {
		return domain.RoundResolution{}, fmt.Errorf("load history: %w", err)
	}
	if want := len(history) + 1; snap.Round != want {
		return domain.RoundResolution{}, fmt.Errorf("%w: room %s expects round %d, got %d", state.ErrRoundOutOfOrder, room, want, snap.Round)
	}

	results, err := s.resolver.Resolve(ctx, snap)
	if err != nil {
		return domain.RoundResolution{}, err
	}
	res := domain.RoundResolution{
		ID:        s.newID(),
		RoomCode:  room,
		Round:     snap.Round,
		Results:   results,
		Timestamp: s.clock.Now().UTC(),
	}
	if err := s.history.Append(ctx, room, res); err != nil {
		return domain.RoundResolution{}, fmt.Errorf("append history: %w", err)
	}

	s.publish(ctx, state.EventRoundResolved, room, res)
	s.logger.InfoContext(ctx, "round committed",
		"room", room,
		"round", res.Round,
		"resolutionID", res.ID,
		"requestID", req.Meta.RequestID,
	)
	return res, nil
}

// History はルームの解決履歴を返す。
func (s *ResolutionService) History(ctx context.Context, room string) ([]domain.RoundResolution, error) {
	start := s.clock.Now()
	defer s.record("history", start)
	return s.history.History(ctx, room)
}

// Finalize は履歴全体から最終スコアを計算して game.finalized を配信する。
func (s *ResolutionService) Finalize(ctx context.Context, req request.Finalize) (domain.FinalScoreOutput, error) {
	start := s.clock.Now()
	defer s.record("finalize", start)

	if err := s.validate.Finalize(req); err != nil {
		return domain.FinalScoreOutput{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	history, err := s.history.History(ctx, req.RoomCode)
	if err != nil {
		return domain.FinalScoreOutput{}, fmt.Errorf("load history: %w", err)
	}

	out := s.scorer.Aggregate(domain.FinalScoreInput{
		History:        history,
		Teams:          req.Teams,
		Investigations: req.Investigations,
	})
	s.publish(ctx, state.EventGameFinalized, req.RoomCode, out)
	s.logger.InfoContext(ctx, "game finalized",
		"room", req.RoomCode,
		"rounds", len(history),
		"winners", out.Winners,
		"tieBreak", out.TieBreak,
	)
	return out, nil
}

// publish の失敗は呼び出し元に返さず、ログとカウンタに残す。
func (s *ResolutionService) publish(ctx context.Context, eventType, room string, v any) {
	payload, err := json.Marshal(v)
	if err == nil {
		err = s.publisher.Publish(ctx, eventType, payload, room)
	}
	if err != nil {
		s.metrics.IncrementCounter(ctx, "publish.failures", 1)
		s.logger.WarnContext(ctx, "failed to publish event", "event", eventType, "room", room, "err", err)
	}
}

func (s *ResolutionService) record(endpoint string, started time.Time) {
	duration := s.clock.Since(started)
	ctx := context.Background()
	s.metrics.RecordLatency(ctx, endpoint, duration)
	s.metrics.IncrementCounter(ctx, "requests."+endpoint, 1)
}
