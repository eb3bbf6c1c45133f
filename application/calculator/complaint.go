package calculator

import (
	"slices"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/utils"
)

// Complaint は苦情率をボリューム加重で求め、満たした最上位の閾値の罰則だけを返す。
func (c *Calculator) Complaint(team domain.SenderTeam, volume domain.VolumeResult, round int) (domain.ComplaintResult, error) {
	rules := c.cat.Complaint
	clients := clientIndex(team)

	var raw, adjusted, weights []float64
	for _, cv := range volume.Clients {
		client, ok := clients[cv.ClientID]
		if !ok {
			continue
		}
		st := team.ClientStates[cv.ClientID]
		rate := client.BaseSpamRate
		adj := rate
		if hasApplicable(st.VolumeModifiers, domain.SourceListHygiene, domain.ModifierPermanentReduction, round, st.FirstActiveRound) {
			adj *= 1 - rules.ListHygieneReduction
		}
		raw = append(raw, rate)
		adjusted = append(adjusted, adj)
		weights = append(weights, float64(cv.AdjustedVolume))
	}

	var res domain.ComplaintResult
	res.BaseComplaintRate = utils.WeightedMean(raw, weights, 0)
	perClient := utils.WeightedMean(adjusted, weights, 0)
	res.AdjustedComplaintRate = perClient

	filtering := 0.0
	if rules.ContentFilteringTech != "" && slices.Contains(team.TechStack, rules.ContentFilteringTech) {
		tech, err := c.cat.Tech(rules.ContentFilteringTech)
		if err != nil {
			return domain.ComplaintResult{}, err
		}
		filtering = tech.ComplaintReduction
		res.AdjustedComplaintRate *= 1 - filtering
	}

	// Thresholds は Rate の昇順。
	for i := range rules.Thresholds {
		th := rules.Thresholds[i]
		if res.AdjustedComplaintRate >= th.Rate {
			res.Threshold = &th
		}
	}
	if res.Threshold != nil {
		res.ReputationPenalty = res.Threshold.Penalty
	}

	res.Breakdown = []domain.BreakdownItem{
		{Name: "Base Complaint Rate", Value: res.BaseComplaintRate},
		{Name: "List Hygiene Reduction", Value: perClient - res.BaseComplaintRate},
	}
	if filtering != 0 {
		res.Breakdown = append(res.Breakdown, domain.BreakdownItem{Name: "Content Filtering", Value: res.AdjustedComplaintRate - perClient})
	}
	res.Breakdown = append(res.Breakdown,
		domain.BreakdownItem{Name: "Adjusted Complaint Rate", Value: res.AdjustedComplaintRate},
		domain.BreakdownItem{Name: "Threshold Penalty", Value: res.ReputationPenalty},
	)
	return res, nil
}
