package calculator

import (
	"fmt"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

// foldStep は適用されたモディファイア1件分の前後の値。
type foldStep struct {
	modifier domain.Modifier
	factor   float64
	before   float64
	after    float64
}

type foldResult struct {
	value      float64
	multiplier float64
	steps      []foldStep
}

// fold は start にモディファイアを順に掛ける。永続削減をリスト順に適用した後、
// ラウンド乗数をリスト順に適用する。このラウンドで無効なものは飛ばす。
func (c *Calculator) fold(start float64, mods []domain.Modifier, risk domain.RiskTier, round, firstActiveRound int) (foldResult, error) {
	res := foldResult{value: start, multiplier: 1}
	for _, kind := range []domain.ModifierKind{domain.ModifierPermanentReduction, domain.ModifierRoundMultiplier} {
		for _, m := range mods {
			if m.Kind != domain.ModifierPermanentReduction && m.Kind != domain.ModifierRoundMultiplier {
				return foldResult{}, fmt.Errorf("%w: %s (%d)", ErrUnknownModifierKind, m.ID, m.Kind)
			}
			if m.Kind != kind || !m.AppliesTo(round, firstActiveRound) {
				continue
			}
			factor, err := c.factor(m, risk)
			if err != nil {
				return foldResult{}, err
			}
			before := res.value
			res.value *= factor
			res.multiplier *= factor
			res.steps = append(res.steps, foldStep{modifier: m, factor: factor, before: before, after: res.value})
		}
	}
	return res, nil
}

func (c *Calculator) factor(m domain.Modifier, risk domain.RiskTier) (float64, error) {
	if m.Kind == domain.ModifierPermanentReduction && m.Multiplier == 0 {
		return c.cat.ListHygieneRetention(risk)
	}
	return m.Multiplier, nil
}

// hasApplicable は指定ソースのモディファイアがこのラウンドで有効かを返す。
func hasApplicable(mods []domain.Modifier, source string, kind domain.ModifierKind, round, firstActiveRound int) bool {
	for _, m := range mods {
		if m.Source == source && m.Kind == kind && m.AppliesTo(round, firstActiveRound) {
			return true
		}
	}
	return false
}
