package calculator

import (
	"math"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

// SpamTrapInput はスパムトラップ判定の入力。RoomCode はシードにだけ使う。
type SpamTrapInput struct {
	RoomCode     string
	Round        int
	Team         domain.SenderTeam
	Destinations []domain.Destination
	Volume       domain.VolumeResult
}

// SpamTrap はクライアントごと、(クライアント, 宛先) ごとに決定的なロールを振り、
// ヒット数に応じた罰則を下限付きで返す。下限に掛かった場合は宛先ごとの罰則を
// ヒット数の比で按分し直す。
func (c *Calculator) SpamTrap(in SpamTrapInput) (domain.SpamTrapResult, error) {
	rules := c.cat.SpamTrap
	clients := clientIndex(in.Team)
	res := domain.SpamTrapResult{
		Clients:              make([]domain.SpamTrapClient, 0, len(in.Volume.Clients)),
		PenaltyByDestination: make(map[string]float64, len(in.Destinations)),
	}
	hitsByDestination := make(map[string]int, len(in.Destinations))

	for _, cv := range in.Volume.Clients {
		client, ok := clients[cv.ClientID]
		if !ok {
			continue
		}
		base, err := c.cat.SpamTrapRisk(client.Type)
		if err != nil {
			return domain.SpamTrapResult{}, err
		}
		st := in.Team.ClientStates[client.ID]
		folded, err := c.fold(base, st.SpamTrapModifiers, client.Risk, in.Round, st.FirstActiveRound)
		if err != nil {
			return domain.SpamTrapResult{}, err
		}

		roll := clientRoll(in.RoomCode, in.Round, in.Team.Name, client.ID)
		res.Clients = append(res.Clients, domain.SpamTrapClient{
			ClientID:   client.ID,
			BaseRisk:   base,
			Multiplier: folded.multiplier,
			Risk:       folded.value,
			Roll:       roll,
			Flagged:    roll < folded.value,
		})

		for _, d := range in.Destinations {
			risk := folded.value
			if d.SpamTrapNetworkActive() {
				risk *= rules.NetworkMultiplier
			}
			r := destinationRoll(in.RoomCode, in.Round, in.Team.Name, client.ID, d.Name)
			hit := r < risk
			if hit {
				hitsByDestination[d.Name]++
				res.HitCount++
			}
			res.Rolls = append(res.Rolls, domain.SpamTrapHit{
				ClientID:    client.ID,
				Destination: d.Name,
				Risk:        risk,
				Roll:        r,
				Hit:         hit,
			})
		}
	}

	uncapped := c.trapPenalty(res.HitCount)
	res.ReputationPenalty = math.Max(uncapped, rules.PenaltyFloor)
	res.CapApplied = uncapped < rules.PenaltyFloor

	// 宛先ごとの罰則の合計は常に ReputationPenalty と一致する。
	scale := 1.0
	if res.CapApplied {
		scale = rules.PenaltyFloor / uncapped
	}
	for _, d := range in.Destinations {
		res.PenaltyByDestination[d.Name] = c.trapPenalty(hitsByDestination[d.Name]) * scale
	}

	res.Breakdown = []domain.BreakdownItem{
		{Name: "Trap Hits", Value: float64(res.HitCount)},
		{Name: "Uncapped Penalty", Value: uncapped},
		{Name: "Reputation Penalty", Value: res.ReputationPenalty},
	}
	return res, nil
}

func (c *Calculator) trapPenalty(hits int) float64 {
	if hits == 0 {
		return 0
	}
	return float64(hits) * c.cat.SpamTrap.PenaltyPerHit
}
