package calculator

import (
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

// Revenue はクライアントごとに round(基礎収益 × 累積ボリューム倍率 × 配信率) を計算する。
// モディファイアが一つも掛かっていないクライアントの倍率は 1。
func (c *Calculator) Revenue(team domain.SenderTeam, volume domain.VolumeResult, deliveryRate float64) domain.RevenueResult {
	clients := clientIndex(team)
	res := domain.RevenueResult{
		Clients:      make([]domain.ClientRevenue, 0, len(volume.Clients)),
		DeliveryRate: deliveryRate,
	}
	for _, cv := range volume.Clients {
		client, ok := clients[cv.ClientID]
		if !ok {
			continue
		}
		mult := cv.Multiplier
		if len(cv.Adjustments) == 0 {
			mult = 1
		}
		actual := roundInt(float64(client.BaseRevenue) * mult * deliveryRate)
		res.Clients = append(res.Clients, domain.ClientRevenue{
			ClientID:      client.ID,
			BaseRevenue:   client.BaseRevenue,
			Multiplier:    mult,
			ActualRevenue: actual,
		})
		res.BaseRevenue += client.BaseRevenue
		res.ActualRevenue += actual
	}
	res.Breakdown = []domain.BreakdownItem{
		{Name: "Base Revenue", Value: float64(res.BaseRevenue)},
		{Name: "Delivery Rate", Value: deliveryRate},
		{Name: "Actual Revenue", Value: float64(res.ActualRevenue)},
	}
	return res
}

// DestinationRevenue は round((キングダム基礎収益 + ボリュームボーナス) × 満足度倍率) を返す。
func (c *Calculator) DestinationRevenue(kingdom string, totalVolume int, satisfaction float64) (domain.DestinationRevenueResult, error) {
	base, err := c.cat.KingdomBaseRevenue(kingdom)
	if err != nil {
		return domain.DestinationRevenueResult{}, err
	}
	rules := c.cat.DestinationRevenue
	bonus := roundInt(float64(totalVolume) / rules.VolumeUnit * rules.BonusPerUnit)
	tier := c.cat.TierFor(satisfaction)
	total := roundInt(float64(base+bonus) * tier.Multiplier)
	return domain.DestinationRevenueResult{
		Kingdom:                kingdom,
		BaseRevenue:            base,
		VolumeBonus:            bonus,
		SatisfactionTier:       tier.Name,
		SatisfactionMultiplier: tier.Multiplier,
		TotalRevenue:           total,
		Breakdown: []domain.BreakdownItem{
			{Name: "Base Revenue", Value: float64(base)},
			{Name: "Volume Bonus", Value: float64(bonus)},
			{Name: "Satisfaction Multiplier", Value: tier.Multiplier},
			{Name: "Total Revenue", Value: float64(total)},
		},
	}, nil
}
