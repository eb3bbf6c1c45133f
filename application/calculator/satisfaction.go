package calculator

import (
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/utils"
)

// Satisfaction は宛先ごとにブロック率と誤検知率を決め、苦情率をスパム比率として
// メールの流れを分けてから満足度を出す。チーム全体の値は宛先ボリュームの加重平均。
func (c *Calculator) Satisfaction(team string, destinations []domain.Destination, volume domain.VolumeResult, complaintRate float64) (domain.SatisfactionResult, error) {
	rules := c.cat.Satisfaction
	res := domain.SatisfactionResult{
		PerDestination: make([]domain.DestinationSatisfaction, 0, len(destinations)),
	}

	var scores, weights []float64
	for _, d := range destinations {
		policyName := d.PolicyFor(team)
		policy, err := c.cat.Policy(policyName)
		if err != nil {
			return domain.SatisfactionResult{}, err
		}
		blocking, fp := policy.SpamBlocking, policy.FalsePositive
		for _, id := range d.OwnedTools {
			tool, err := c.cat.Tool(id)
			if err != nil {
				return domain.SatisfactionResult{}, err
			}
			blocking += tool.BlockingDelta / 100
			fp += tool.FalsePositiveDelta / 100
		}
		blocking = utils.Clamp(blocking, 0, rules.BlockingCeiling)
		fp = utils.Clamp(fp, rules.FalsePositiveFloor, 1)

		v := float64(volume.PerDestination[d.Name])
		flow := splitFlow(v, complaintRate, blocking, fp)
		score := rules.Baseline
		if v > 0 {
			score = rules.Baseline +
				rules.BlockedWeight*flow.SpamBlocked/v -
				rules.SpamThroughWeight*flow.SpamThrough/v -
				rules.FalsePositiveWeight*flow.FalsePositives/v
		}
		score = utils.Clamp(score, 0, 100)

		res.PerDestination = append(res.PerDestination, domain.DestinationSatisfaction{
			Destination:       d.Name,
			Policy:            policyName,
			SpamBlockingRate:  blocking,
			FalsePositiveRate: fp,
			Flow:              flow,
			Satisfaction:      score,
			Breakdown: []domain.BreakdownItem{
				{Name: "Baseline", Value: rules.Baseline},
				{Name: "Spam Blocked", Value: flow.SpamBlocked},
				{Name: "Spam Through", Value: flow.SpamThrough},
				{Name: "False Positives", Value: flow.FalsePositives},
				{Name: "Satisfaction", Value: score},
			},
		})
		scores = append(scores, score)
		weights = append(weights, v)
	}
	res.AggregateSatisfaction = utils.WeightedMean(scores, weights, rules.Baseline)
	return res, nil
}

func splitFlow(volume, complaintRate, blocking, falsePositive float64) domain.EmailFlow {
	spam := volume * complaintRate / 100
	blocked := spam * blocking
	legitimate := volume - spam
	return domain.EmailFlow{
		TotalVolume:    volume,
		SpamBlocked:    blocked,
		SpamThrough:    spam - blocked,
		FalsePositives: legitimate * falsePositive,
		Legitimate:     legitimate,
	}
}
