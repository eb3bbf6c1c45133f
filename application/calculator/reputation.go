package calculator

import (
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

// Reputation はレピュテーション変化量を計算する。変化量は全宛先で同じで、ここではクランプしない。
//
// クライアントのリスク影響は調整後ボリュームで重み付けした平均。ウォームアップボーナスは
// ウォームアップ中かつ初回稼働ラウンドのクライアントだけが、チーム全体のボリュームに対する
// 自分の割合で寄与する。
func (c *Calculator) Reputation(team domain.SenderTeam, destinations []string, volume domain.VolumeResult, round int) (domain.ReputationResult, error) {
	var res domain.ReputationResult
	for _, id := range team.TechStack {
		tech, err := c.cat.Tech(id)
		if err != nil {
			return domain.ReputationResult{}, err
		}
		res.TechBonus += tech.ReputationBonus
	}

	clients := clientIndex(team)
	total := float64(volume.TotalVolume)
	for _, cv := range volume.Clients {
		client, ok := clients[cv.ClientID]
		if !ok {
			continue
		}
		delta, err := c.cat.RiskDelta(client.Risk)
		if err != nil {
			return domain.ReputationResult{}, err
		}
		if total == 0 {
			continue
		}
		share := float64(cv.AdjustedVolume) / total
		res.VolumeWeightedClientImpact += delta * share

		st := team.ClientStates[cv.ClientID]
		if st.HasVolumeModifierFrom(domain.SourceWarmup) && st.FirstActiveRound == round {
			res.WarmupBonus += c.cat.Reputation.WarmupBonus * share
		}
	}

	change := res.TotalChange()
	res.PerDestination = make(map[string]float64, len(destinations))
	for _, d := range destinations {
		res.PerDestination[d] = change
	}
	res.Breakdown = []domain.BreakdownItem{
		{Name: "Authentication Tech", Value: res.TechBonus},
		{Name: "Client Risk", Value: res.VolumeWeightedClientImpact},
		{Name: "Warmup Bonus", Value: res.WarmupBonus},
	}
	return res, nil
}

func clientIndex(team domain.SenderTeam) map[string]domain.Client {
	idx := make(map[string]domain.Client, len(team.Clients))
	for _, cl := range team.Clients {
		idx[cl.ID] = cl
	}
	return idx
}
