// Package resolution は1ラウンド分の計算器をチーム順、宛先順に連結する。
package resolution

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/touka-aoi/inbox-kingdoms/application/calculator"
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/utils"
)

const tracerName = "github.com/touka-aoi/inbox-kingdoms/application/resolution"

// Orchestrator はラウンドスナップショットから ResolutionResults を組み立てる。
// ログとトレースはここでだけ行い、計算器には渡さない。
type Orchestrator struct {
	calc      *calculator.Calculator
	logger    *slog.Logger
	tracer    trace.Tracer
	spamTraps bool
}

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithSpamTraps はスパムトラップ判定の有効・無効を切り替える。既定は有効。
func WithSpamTraps(enabled bool) Option {
	return func(o *Orchestrator) {
		o.spamTraps = enabled
	}
}

func New(calc *calculator.Calculator, opts ...Option) *Orchestrator {
	if calc == nil {
		calc = calculator.New(nil)
	}
	o := &Orchestrator{
		calc:      calc,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		spamTraps: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Resolve は全チームを順に解決し、その後で宛先ごとに集計する。
// どれか一つの計算器が失敗したらラウンド全体を中断する。
func (o *Orchestrator) Resolve(ctx context.Context, snap domain.RoundSnapshot) (domain.ResolutionResults, error) {
	ctx, span := o.tracer.Start(ctx, "resolution.Resolve", trace.WithAttributes(
		attribute.String("room", snap.RoomCode),
		attribute.Int("round", snap.Round),
		attribute.Int("teams", len(snap.Teams)),
		attribute.Int("destinations", len(snap.Destinations)),
	))
	defer span.End()

	results := domain.ResolutionResults{
		Teams:        make([]domain.TeamResult, 0, len(snap.Teams)),
		Destinations: make([]domain.DestinationResult, 0, len(snap.Destinations)),
	}
	for _, team := range snap.Teams {
		tr, err := o.resolveTeam(ctx, snap, team)
		if err != nil {
			o.fail(ctx, span, err, "team", team.Name)
			return domain.ResolutionResults{}, fmt.Errorf("resolve team %s: %w", team.Name, err)
		}
		results.Teams = append(results.Teams, tr)
	}

	for _, dest := range snap.Destinations {
		dr, err := o.resolveDestination(dest, results.Teams)
		if err != nil {
			o.fail(ctx, span, err, "destination", dest.Name)
			return domain.ResolutionResults{}, fmt.Errorf("resolve destination %s: %w", dest.Name, err)
		}
		results.Destinations = append(results.Destinations, dr)
	}

	o.logger.InfoContext(ctx, "round resolved",
		"room", snap.RoomCode,
		"round", snap.Round,
		"teams", len(results.Teams),
		"destinations", len(results.Destinations),
	)
	return results, nil
}

func (o *Orchestrator) fail(ctx context.Context, span trace.Span, err error, kind, name string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.logger.ErrorContext(ctx, "round resolution failed", kind, name, "err", err)
}

func (o *Orchestrator) resolveTeam(ctx context.Context, snap domain.RoundSnapshot, team domain.SenderTeam) (domain.TeamResult, error) {
	ctx, span := o.tracer.Start(ctx, "resolution.resolveTeam", trace.WithAttributes(attribute.String("team", team.Name)))
	defer span.End()

	calc := o.calc
	round := snap.Round
	tr := domain.TeamResult{
		Team:               team.Name,
		Delivery:           make(map[string]domain.DeliveryResult, len(snap.Destinations)),
		PreviousReputation: make(map[string]float64, len(snap.Destinations)),
		NewReputation:      make(map[string]float64, len(snap.Destinations)),
	}

	vol, err := calc.Volume(team, round)
	if err != nil {
		return domain.TeamResult{}, fmt.Errorf("volume: %w", err)
	}
	tr.Volume = vol

	rates := make([]float64, 0, len(snap.Destinations))
	weights := make([]float64, 0, len(snap.Destinations))
	for _, d := range snap.Destinations {
		current := o.currentReputation(team, d.Name)
		tr.PreviousReputation[d.Name] = current
		dr, err := calc.Delivery(calculator.DeliveryInput{
			Reputation: current,
			Policy:     d.PolicyFor(team.Name),
			TechStack:  team.TechStack,
			Round:      round,
		})
		if err != nil {
			return domain.TeamResult{}, fmt.Errorf("delivery to %s: %w", d.Name, err)
		}
		tr.Delivery[d.Name] = dr
		rates = append(rates, dr.FinalRate)
		weights = append(weights, float64(vol.PerDestination[d.Name]))
	}
	tr.AggregateDeliveryRate = utils.WeightedMean(rates, weights, utils.Mean(rates))

	tr.Revenue = calc.Revenue(team, vol, tr.AggregateDeliveryRate)

	if tr.Reputation, err = calc.Reputation(team, snap.DestinationNames(), vol, round); err != nil {
		return domain.TeamResult{}, fmt.Errorf("reputation: %w", err)
	}
	if tr.Complaint, err = calc.Complaint(team, vol, round); err != nil {
		return domain.TeamResult{}, fmt.Errorf("complaint: %w", err)
	}
	if tr.Satisfaction, err = calc.Satisfaction(team.Name, snap.Destinations, vol, tr.Complaint.AdjustedComplaintRate); err != nil {
		return domain.TeamResult{}, fmt.Errorf("satisfaction: %w", err)
	}

	if o.spamTraps && snap.RoomCode != "" {
		trap, err := calc.SpamTrap(calculator.SpamTrapInput{
			RoomCode:     snap.RoomCode,
			Round:        round,
			Team:         team,
			Destinations: snap.Destinations,
			Volume:       vol,
		})
		if err != nil {
			return domain.TeamResult{}, fmt.Errorf("spam trap: %w", err)
		}
		tr.SpamTrap = &trap
		if trap.HitCount > 0 {
			o.logger.InfoContext(ctx, "spam traps hit",
				"room", snap.RoomCode, "round", round, "team", team.Name,
				"hits", trap.HitCount, "penalty", trap.ReputationPenalty, "capped", trap.CapApplied)
		}
	}

	for _, d := range snap.Destinations {
		next := tr.PreviousReputation[d.Name] + tr.Reputation.PerDestination[d.Name] + tr.Complaint.ReputationPenalty
		if tr.SpamTrap != nil {
			next += tr.SpamTrap.PenaltyByDestination[d.Name]
		}
		tr.NewReputation[d.Name] = utils.Clamp(next, 0, 100)
	}

	span.SetAttributes(
		attribute.Int("volume", vol.TotalVolume),
		attribute.Int("revenue", tr.Revenue.ActualRevenue),
		attribute.Float64("delivery_rate", tr.AggregateDeliveryRate),
	)
	o.logger.DebugContext(ctx, "team resolved",
		"room", snap.RoomCode,
		"round", round,
		"team", team.Name,
		"volume", vol.TotalVolume,
		"deliveryRate", tr.AggregateDeliveryRate,
		"revenue", tr.Revenue.ActualRevenue,
		"complaintRate", tr.Complaint.AdjustedComplaintRate,
	)
	return tr, nil
}

// currentReputation は宛先に対するチームの現在値。未設定ならカタログの初期値。
func (o *Orchestrator) currentReputation(team domain.SenderTeam, destination string) float64 {
	if v, ok := team.Reputation[destination]; ok {
		return utils.Clamp(v, 0, 100)
	}
	return o.calc.Catalog().StartingReputation
}

// resolveDestination は全チームの結果から宛先側の満足度・流量・収益を集計する。
func (o *Orchestrator) resolveDestination(dest domain.Destination, teams []domain.TeamResult) (domain.DestinationResult, error) {
	kingdom := dest.Kingdom
	if kingdom == "" {
		kingdom = dest.Name
	}
	res := domain.DestinationResult{Destination: dest.Name, Kingdom: kingdom}

	var scores, weights []float64
	for _, tr := range teams {
		v := tr.Volume.PerDestination[dest.Name]
		res.TotalVolume += v
		ds, ok := tr.Satisfaction.ForDestination(dest.Name)
		if !ok {
			continue
		}
		res.Flow = res.Flow.Add(ds.Flow)
		scores = append(scores, ds.Satisfaction)
		weights = append(weights, float64(v))
	}
	res.AggregatedSatisfaction = utils.WeightedMean(scores, weights, o.calc.Catalog().Satisfaction.Baseline)

	rev, err := o.calc.DestinationRevenue(kingdom, res.TotalVolume, res.AggregatedSatisfaction)
	if err != nil {
		return domain.DestinationResult{}, err
	}
	res.Revenue = rev
	return res, nil
}
