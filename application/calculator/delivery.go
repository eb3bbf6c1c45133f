package calculator

import (
	"slices"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/utils"
)

// DeliveryInput は配信率計算の入力。Policy が空なら宛先別のフィルタリング罰則は掛からない。
type DeliveryInput struct {
	Reputation float64
	Policy     domain.FilteringPolicy
	TechStack  []string
	Round      int
}

// Delivery はレピュテーション帯の基礎率に認証ボーナスとフィルタリング罰則を加え、
// コンプライアンス違反なら最後に倍率を掛けて [0,1] に収める。
func (c *Calculator) Delivery(in DeliveryInput) (domain.DeliveryResult, error) {
	zone := c.cat.ZoneFor(in.Reputation)
	res := domain.DeliveryResult{
		Zone:     zone.Name,
		BaseRate: zone.Rate,
	}
	res.Breakdown = append(res.Breakdown, domain.BreakdownItem{Name: "Base Rate", Value: zone.Rate})

	for _, id := range in.TechStack {
		tech, err := c.cat.Tech(id)
		if err != nil {
			return domain.DeliveryResult{}, err
		}
		if tech.Authentication {
			res.AuthBonus += tech.DeliveryBonus
		}
	}
	if res.AuthBonus != 0 {
		res.Breakdown = append(res.Breakdown, domain.BreakdownItem{Name: "Authentication Bonus", Value: res.AuthBonus})
	}

	if in.Policy != "" {
		policy, err := c.cat.Policy(in.Policy)
		if err != nil {
			return domain.DeliveryResult{}, err
		}
		res.FilteringPenalty = policy.DeliveryPenalty
	}
	if res.FilteringPenalty != 0 {
		res.Breakdown = append(res.Breakdown, domain.BreakdownItem{Name: "Filtering Penalty", Value: -res.FilteringPenalty})
	}

	rate := res.BaseRate + res.AuthBonus - res.FilteringPenalty
	rule := c.cat.Compliance
	if rule.RequiredTech != "" && in.Round >= rule.FromRound && !slices.Contains(in.TechStack, rule.RequiredTech) {
		res.CompliancePenalty = true
		rate *= rule.Multiplier
		res.Breakdown = append(res.Breakdown, domain.BreakdownItem{Name: "Compliance Penalty", Value: rule.Multiplier})
	}

	res.FinalRate = utils.Clamp(rate, 0, 1)
	res.Breakdown = append(res.Breakdown, domain.BreakdownItem{Name: "Final Rate", Value: res.FinalRate})
	return res, nil
}
