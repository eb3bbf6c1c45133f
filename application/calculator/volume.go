package calculator

import (
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

// Volume はチームの Active なクライアントについて調整後ボリュームと宛先別配分を計算する。
// Paused のクライアントはどの一覧にも現れない。
func (c *Calculator) Volume(team domain.SenderTeam, round int) (domain.VolumeResult, error) {
	res := domain.VolumeResult{
		Clients:        make([]domain.ClientVolume, 0, len(team.Clients)),
		PerDestination: make(map[string]int),
	}
	for _, client := range team.ActiveClients() {
		st := team.ClientStates[client.ID]
		folded, err := c.fold(float64(client.BaseVolume), st.VolumeModifiers, client.Risk, round, st.FirstActiveRound)
		if err != nil {
			return domain.VolumeResult{}, err
		}

		cv := domain.ClientVolume{
			ClientID:       client.ID,
			BaseVolume:     client.BaseVolume,
			AdjustedVolume: roundInt(folded.value),
			Multiplier:     folded.multiplier,
			Adjustments:    make([]domain.VolumeAdjustment, 0, len(folded.steps)),
			PerDestination: make(map[string]int),
		}
		for _, s := range folded.steps {
			cv.Adjustments = append(cv.Adjustments, domain.VolumeAdjustment{
				ModifierID: s.modifier.ID,
				Source:     s.modifier.Source,
				Kind:       s.modifier.Kind,
				Removed:    roundInt(s.before) - roundInt(s.after),
			})
		}
		for dest, pct := range c.cat.DistributionFor(client) {
			share := roundInt(float64(cv.AdjustedVolume) * pct / 100)
			cv.PerDestination[dest] = share
			res.PerDestination[dest] += share
		}

		res.TotalVolume += cv.AdjustedVolume
		res.Clients = append(res.Clients, cv)
	}
	return res, nil
}
