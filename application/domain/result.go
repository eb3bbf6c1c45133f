package domain

// BreakdownItem は計算結果を監査するための名前付き寄与項。
type BreakdownItem struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// VolumeAdjustment はモディファイア1件で削られたボリューム。倍率が1を超える場合は負になる。
type VolumeAdjustment struct {
	ModifierID string       `json:"modifierId"`
	Source     string       `json:"source"`
	Kind       ModifierKind `json:"kind"`
	Removed    int          `json:"removed"`
}

// ClientVolume はクライアント単位のボリューム計算結果。
type ClientVolume struct {
	ClientID       string             `json:"clientId"`
	BaseVolume     int                `json:"baseVolume"`
	AdjustedVolume int                `json:"adjustedVolume"`
	Multiplier     float64            `json:"multiplier"`
	Adjustments    []VolumeAdjustment `json:"adjustments"`
	PerDestination map[string]int     `json:"perDestination"`
}

// VolumeResult は TotalVolume == Σ AdjustedVolume、PerDestination[d] == Σ ClientVolume.PerDestination[d] を満たす。
type VolumeResult struct {
	Clients        []ClientVolume `json:"clients"`
	TotalVolume    int            `json:"totalVolume"`
	PerDestination map[string]int `json:"perDestination"`
}

// ClientByID はクライアントIDでボリューム結果を探します。
func (v VolumeResult) ClientByID(id string) (ClientVolume, bool) {
	for _, c := range v.Clients {
		if c.ClientID == id {
			return c, true
		}
	}
	return ClientVolume{}, false
}

// ReputationZone は配信率を決めるレピュテーション帯。
type ReputationZone string

const (
	ZoneExcellent ReputationZone = "excellent"
	ZoneGood      ReputationZone = "good"
	ZoneWarning   ReputationZone = "warning"
	ZonePoor      ReputationZone = "poor"
	ZoneBlacklist ReputationZone = "blacklist"
)

type DeliveryResult struct {
	Zone              ReputationZone  `json:"zone"`
	BaseRate          float64         `json:"baseRate"`
	AuthBonus         float64         `json:"authBonus"`
	FilteringPenalty  float64         `json:"filteringPenalty"`
	CompliancePenalty bool            `json:"compliancePenalty"`
	FinalRate         float64         `json:"finalRate"`
	Breakdown         []BreakdownItem `json:"breakdown"`
}

type ReputationResult struct {
	TechBonus                  float64            `json:"techBonus"`
	VolumeWeightedClientImpact float64            `json:"volumeWeightedClientImpact"`
	WarmupBonus                float64            `json:"warmupBonus"`
	PerDestination             map[string]float64 `json:"perDestination"`
	Breakdown                  []BreakdownItem    `json:"breakdown"`
}

// TotalChange はどの宛先でも同じ合計変化量。
func (r ReputationResult) TotalChange() float64 {
	return r.TechBonus + r.VolumeWeightedClientImpact + r.WarmupBonus
}

// ComplaintThreshold は苦情率の閾値段階。
type ComplaintThreshold struct {
	Name    string  `json:"name"`
	Rate    float64 `json:"rate"`
	Penalty float64 `json:"penalty"`
}

type ComplaintResult struct {
	BaseComplaintRate     float64             `json:"baseComplaintRate"`
	AdjustedComplaintRate float64             `json:"adjustedComplaintRate"`
	Threshold             *ComplaintThreshold `json:"threshold,omitempty"`
	ReputationPenalty     float64             `json:"reputationPenalty"`
	Breakdown             []BreakdownItem     `json:"breakdown"`
}

// SpamTrapHit は (クライアント, 宛先) ごとの判定結果。
type SpamTrapHit struct {
	ClientID    string  `json:"clientId"`
	Destination string  `json:"destination"`
	Risk        float64 `json:"risk"`
	Roll        float64 `json:"roll"`
	Hit         bool    `json:"hit"`
}

// SpamTrapClient はクライアント単位のロール。
type SpamTrapClient struct {
	ClientID   string  `json:"clientId"`
	BaseRisk   float64 `json:"baseRisk"`
	Multiplier float64 `json:"multiplier"`
	Risk       float64 `json:"risk"`
	Roll       float64 `json:"roll"`
	Flagged    bool    `json:"flagged"`
}

type SpamTrapResult struct {
	Clients              []SpamTrapClient   `json:"clients"`
	Rolls                []SpamTrapHit      `json:"rolls"`
	HitCount             int                `json:"hitCount"`
	PenaltyByDestination map[string]float64 `json:"penaltyByDestination"`
	ReputationPenalty    float64            `json:"reputationPenalty"`
	CapApplied           bool               `json:"capApplied"`
	Breakdown            []BreakdownItem    `json:"breakdown"`
}

// EmailFlow は宛先に届いたメールの内訳。
type EmailFlow struct {
	TotalVolume    float64 `json:"totalVolume"`
	SpamBlocked    float64 `json:"spamBlocked"`
	SpamThrough    float64 `json:"spamThrough"`
	FalsePositives float64 `json:"falsePositives"`
	Legitimate     float64 `json:"legitimate"`
}

// Add は2つの内訳を合算します。
func (f EmailFlow) Add(o EmailFlow) EmailFlow {
	return EmailFlow{
		TotalVolume:    f.TotalVolume + o.TotalVolume,
		SpamBlocked:    f.SpamBlocked + o.SpamBlocked,
		SpamThrough:    f.SpamThrough + o.SpamThrough,
		FalsePositives: f.FalsePositives + o.FalsePositives,
		Legitimate:     f.Legitimate + o.Legitimate,
	}
}

type DestinationSatisfaction struct {
	Destination       string          `json:"destination"`
	Policy            FilteringPolicy `json:"policy"`
	SpamBlockingRate  float64         `json:"spamBlockingRate"`
	FalsePositiveRate float64         `json:"falsePositiveRate"`
	Flow              EmailFlow       `json:"flow"`
	Satisfaction      float64         `json:"satisfaction"`
	Breakdown         []BreakdownItem `json:"breakdown"`
}

type SatisfactionResult struct {
	PerDestination        []DestinationSatisfaction `json:"perDestination"`
	AggregateSatisfaction float64                   `json:"aggregateSatisfaction"`
}

// ForDestination は宛先名で結果を探します。
func (r SatisfactionResult) ForDestination(name string) (DestinationSatisfaction, bool) {
	for _, d := range r.PerDestination {
		if d.Destination == name {
			return d, true
		}
	}
	return DestinationSatisfaction{}, false
}

type ClientRevenue struct {
	ClientID      string  `json:"clientId"`
	BaseRevenue   int     `json:"baseRevenue"`
	Multiplier    float64 `json:"multiplier"`
	ActualRevenue int     `json:"actualRevenue"`
}

type RevenueResult struct {
	Clients       []ClientRevenue `json:"clients"`
	DeliveryRate  float64         `json:"deliveryRate"`
	BaseRevenue   int             `json:"baseRevenue"`
	ActualRevenue int             `json:"actualRevenue"`
	Breakdown     []BreakdownItem `json:"breakdown"`
}

type DestinationRevenueResult struct {
	Kingdom                string          `json:"kingdom"`
	BaseRevenue            int             `json:"baseRevenue"`
	VolumeBonus            int             `json:"volumeBonus"`
	SatisfactionTier       string          `json:"satisfactionTier"`
	SatisfactionMultiplier float64         `json:"satisfactionMultiplier"`
	TotalRevenue           int             `json:"totalRevenue"`
	Breakdown              []BreakdownItem `json:"breakdown"`
}
