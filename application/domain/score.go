package domain

// FinalTeamSnapshot は最終ラウンド終了時点のチーム状態。
type FinalTeamSnapshot struct {
	Name       string             `json:"name"`
	Reputation map[string]float64 `json:"reputation"`
	TechSpend  int                `json:"techSpend"`
}

// FinalScoreInput は最終集計の入力。
type FinalScoreInput struct {
	History        []RoundResolution   `json:"history"`
	Teams          []FinalTeamSnapshot `json:"teams"`
	Investigations int                 `json:"investigations"`
}

// TeamScore は送信チームの最終スコア。
type TeamScore struct {
	Team                string               `json:"team"`
	Rank                int                  `json:"rank"`
	TotalRevenue        int                  `json:"totalRevenue"`
	WeightedReputation  float64              `json:"weightedReputation"`
	ReputationScore     float64              `json:"reputationScore"`
	RevenueScore        float64              `json:"revenueScore"`
	TechnicalScore      float64              `json:"technicalScore"`
	TotalScore          float64              `json:"totalScore"`
	Qualified           bool                 `json:"qualified"`
	FailingDestinations []string             `json:"failingDestinations,omitempty"`
	ReputationTrail     []map[string]float64 `json:"reputationTrail"`
}

// DestinationCollaborativeScore は宛先チーム全体の協調スコア。
type DestinationCollaborativeScore struct {
	IndustryProtection float64   `json:"industryProtection"`
	CoordinationBonus  float64   `json:"coordinationBonus"`
	UserSatisfaction   float64   `json:"userSatisfaction"`
	TotalScore         float64   `json:"totalScore"`
	Success            bool      `json:"success"`
	Flow               EmailFlow `json:"flow"`
}

// FinalScoreOutput は最終ラウンド後に一度だけ計算される。
type FinalScoreOutput struct {
	Teams       []TeamScore                   `json:"teams"`
	Winners     []string                      `json:"winners"`
	Winner      string                        `json:"winner,omitempty"`
	TieBreak    bool                          `json:"tieBreak"`
	Destination DestinationCollaborativeScore `json:"destination"`
}
