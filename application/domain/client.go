package domain

// RiskTier はクライアントのリスク区分です。
type RiskTier string

const (
	RiskLow    RiskTier = "Low"
	RiskMedium RiskTier = "Medium"
	RiskHigh   RiskTier = "High"
)

// ClientStatus はラウンド内でのクライアントの稼働状態です。Active のみが計算対象になります。
type ClientStatus string

const (
	ClientActive ClientStatus = "Active"
	ClientPaused ClientStatus = "Paused"
)

// Client は送信チームが獲得した送信アカウントです。生成後は変更されません。
type Client struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	BaseVolume   int      `json:"baseVolume"`
	BaseRevenue  int      `json:"baseRevenue"`
	Risk         RiskTier `json:"risk"`
	BaseSpamRate float64  `json:"baseSpamRate"` // パーセント単位

	// DestinationDistribution は宛先ごとの配分率（合計100）。空の場合はカタログの既定配分を使う。
	DestinationDistribution map[string]float64 `json:"destinationDistribution,omitempty"`
}

// ClientState はチーム内でのクライアントのラウンドごとの状態です。
// モディファイアは外部（購入・インシデント）から追加され、エンジンは読み取るだけです。
type ClientState struct {
	Status            ClientStatus `json:"status"`
	FirstActiveRound  int          `json:"firstActiveRound"`
	VolumeModifiers   []Modifier   `json:"volumeModifiers,omitempty"`
	SpamTrapModifiers []Modifier   `json:"spamTrapModifiers,omitempty"`
}

// IsActive は状態が Active かどうかを返します。
func (s ClientState) IsActive() bool {
	return s.Status == ClientActive
}

// HasVolumeModifierFrom は指定ソースのボリュームモディファイアを持つかを返します。
func (s ClientState) HasVolumeModifierFrom(source string) bool {
	for _, m := range s.VolumeModifiers {
		if m.Source == source {
			return true
		}
	}
	return false
}
