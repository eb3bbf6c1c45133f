// Package scoring は最終ラウンド後にラウンド履歴全体から最終スコアを計算する。
package scoring

import (
	"cmp"
	"maps"
	"math"
	"slices"

	"github.com/touka-aoi/inbox-kingdoms/application/catalog"
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

const tieEpsilon = 1e-9

// Aggregator は履歴を唯一の情報源として最終スコアを組み立てる。
type Aggregator struct {
	cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Aggregator {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Aggregator{cat: cat}
}

// history を1度だけ走査した結果。
type rollup struct {
	revenue map[string]int
	trail   map[string][]map[string]float64
	flow    domain.EmailFlow
}

func (a *Aggregator) walk(history []domain.RoundResolution) rollup {
	r := rollup{
		revenue: make(map[string]int),
		trail:   make(map[string][]map[string]float64),
	}
	for _, round := range history {
		for _, tr := range round.Results.Teams {
			r.revenue[tr.Team] += tr.Revenue.ActualRevenue
			r.trail[tr.Team] = append(r.trail[tr.Team], maps.Clone(tr.NewReputation))
			for _, ds := range tr.Satisfaction.PerDestination {
				r.flow = r.flow.Add(ds.Flow)
			}
		}
	}
	return r
}

// Aggregate は送信チームの順位と勝者、宛先チームの協調スコアを返す。
func (a *Aggregator) Aggregate(in domain.FinalScoreInput) domain.FinalScoreOutput {
	rules := a.cat.Scoring
	r := a.walk(in.History)

	maxRevenue := 0
	for _, t := range in.Teams {
		maxRevenue = max(maxRevenue, r.revenue[t.Name])
	}

	scores := make([]domain.TeamScore, 0, len(in.Teams))
	for _, t := range in.Teams {
		rep := t.Reputation
		trail := r.trail[t.Name]
		if len(rep) == 0 && len(trail) > 0 {
			rep = trail[len(trail)-1]
		}

		s := domain.TeamScore{
			Team:               t.Name,
			TotalRevenue:       r.revenue[t.Name],
			WeightedReputation: a.weightedReputation(rep),
			ReputationTrail:    trail,
			Qualified:          true,
		}
		s.ReputationScore = s.WeightedReputation / 100 * rules.ReputationPoints
		if maxRevenue > 0 {
			s.RevenueScore = float64(s.TotalRevenue) / float64(maxRevenue) * rules.RevenuePoints
		}
		s.TechnicalScore = math.Min(float64(t.TechSpend)/rules.TechSpendCap, 1) * rules.TechnicalPoints
		s.TotalScore = s.ReputationScore + s.RevenueScore + s.TechnicalScore

		for _, d := range slices.Sorted(maps.Keys(rep)) {
			if rep[d] < rules.QualificationThreshold {
				s.Qualified = false
				s.FailingDestinations = append(s.FailingDestinations, d)
			}
		}
		scores = append(scores, s)
	}

	slices.SortStableFunc(scores, func(x, y domain.TeamScore) int {
		if c := compareDesc(x.TotalScore, y.TotalScore); c != 0 {
			return c
		}
		if c := compareDesc(x.WeightedReputation, y.WeightedReputation); c != 0 {
			return c
		}
		return cmp.Compare(x.Team, y.Team)
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}

	out := domain.FinalScoreOutput{
		Teams:       scores,
		Destination: a.destinationScore(r.flow, in.Investigations),
	}
	out.Winners, out.TieBreak = pickWinners(scores)
	if len(out.Winners) == 1 {
		out.Winner = out.Winners[0]
	}
	return out
}

// weightedReputation は宛先別レピュテーションをクランプして重み付き平均する。
// 重みのない宛先が一つでもあれば全宛先を等しく扱う。
func (a *Aggregator) weightedReputation(rep map[string]float64) float64 {
	if len(rep) == 0 {
		return 0
	}
	weights := a.cat.Scoring.ReputationWeights
	equal := false
	for d := range rep {
		if _, ok := weights[d]; !ok {
			equal = true
			break
		}
	}
	var sum, total float64
	for d, v := range rep {
		w := 1.0
		if !equal {
			w = weights[d]
		}
		sum += math.Max(0, math.Min(100, v)) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// pickWinners は資格のあるチームから勝者を選ぶ。scores は順位順。
// 合計点の同点をレピュテーションで崩せたら tieBreak は true、崩せなければ全員が共同勝者。
func pickWinners(scores []domain.TeamScore) ([]string, bool) {
	var top []domain.TeamScore
	for _, s := range scores {
		if !s.Qualified {
			continue
		}
		if len(top) == 0 || math.Abs(s.TotalScore-top[0].TotalScore) < tieEpsilon {
			top = append(top, s)
		}
	}
	if len(top) == 0 {
		return nil, false
	}
	if len(top) == 1 {
		return []string{top[0].Team}, false
	}

	best := top[0].WeightedReputation
	winners := make([]string, 0, len(top))
	for _, s := range top {
		if math.Abs(s.WeightedReputation-best) < tieEpsilon {
			winners = append(winners, s.Team)
		}
	}
	return winners, len(winners) == 1
}

func (a *Aggregator) destinationScore(flow domain.EmailFlow, investigations int) domain.DestinationCollaborativeScore {
	rules := a.cat.Scoring
	s := domain.DestinationCollaborativeScore{Flow: flow}
	if spam := flow.SpamBlocked + flow.SpamThrough; spam > 0 {
		s.IndustryProtection = flow.SpamBlocked / spam * rules.IndustryProtectionWeight
	}
	s.CoordinationBonus = float64(investigations) * rules.CoordinationPoints
	fpRate := 0.0
	if flow.Legitimate > 0 {
		fpRate = flow.FalsePositives / flow.Legitimate
	}
	s.UserSatisfaction = (1 - fpRate) * rules.UserSatisfactionWeight
	s.TotalScore = math.Min(s.IndustryProtection+s.CoordinationBonus+s.UserSatisfaction, rules.MaxScore)
	s.Success = s.TotalScore > rules.SuccessThreshold
	return s
}

func compareDesc(x, y float64) int {
	if math.Abs(x-y) < tieEpsilon {
		return 0
	}
	if x > y {
		return -1
	}
	return 1
}
