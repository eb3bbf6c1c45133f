package domain

import "time"

// TeamResult は送信チーム1つ分のラウンド結果。
type TeamResult struct {
	Team                  string                    `json:"team"`
	Volume                VolumeResult              `json:"volume"`
	Delivery              map[string]DeliveryResult `json:"delivery"`
	AggregateDeliveryRate float64                   `json:"aggregateDeliveryRate"`
	Revenue               RevenueResult             `json:"revenue"`
	Reputation            ReputationResult          `json:"reputation"`
	Complaint             ComplaintResult           `json:"complaint"`
	Satisfaction          SatisfactionResult        `json:"satisfaction"`
	SpamTrap              *SpamTrapResult           `json:"spamTrap,omitempty"`

	// PreviousReputation / NewReputation はクランプ済みの宛先別レピュテーション。
	PreviousReputation map[string]float64 `json:"previousReputation"`
	NewReputation      map[string]float64 `json:"newReputation"`
}

// DestinationResult は宛先1つ分のラウンド結果（全チーム集計）。
type DestinationResult struct {
	Destination            string                   `json:"destination"`
	Kingdom                string                   `json:"kingdom"`
	TotalVolume            int                      `json:"totalVolume"`
	AggregatedSatisfaction float64                  `json:"aggregatedSatisfaction"`
	Flow                   EmailFlow                `json:"flow"`
	Revenue                DestinationRevenueResult `json:"revenue"`
}

// ResolutionResults は1ラウンドの全出力。
type ResolutionResults struct {
	Teams        []TeamResult        `json:"teams"`
	Destinations []DestinationResult `json:"destinations"`
}

// Team はチーム名で結果を探します。
func (r ResolutionResults) Team(name string) (TeamResult, bool) {
	for _, t := range r.Teams {
		if t.Team == name {
			return t, true
		}
	}
	return TeamResult{}, false
}

// RoundResolution は履歴に追記される不変のエントリ。生成後に変更してはならない。
type RoundResolution struct {
	ID        string            `json:"id"`
	RoomCode  string            `json:"roomCode"`
	Round     int               `json:"round"`
	Results   ResolutionResults `json:"results"`
	Timestamp time.Time         `json:"timestamp"`
}
