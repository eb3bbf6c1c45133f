package catalog

import (
	"errors"
	"fmt"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

var (
	ErrUnknownClientType = errors.New("catalog: unknown client type")
	ErrUnknownTech       = errors.New("catalog: unknown tech")
	ErrUnknownTool       = errors.New("catalog: unknown destination tool")
	ErrUnknownPolicy     = errors.New("catalog: unknown filtering policy")
	ErrUnknownKingdom    = errors.New("catalog: unknown kingdom")
	ErrUnknownRiskTier   = errors.New("catalog: unknown risk tier")
)

// Catalog はラウンド解決で使う固定値の一覧。計算器はここから値を引き、見つからなければ即エラーにする。
type Catalog struct {
	StartingReputation  float64                                    `yaml:"starting_reputation"`
	DefaultDistribution map[string]float64                         `yaml:"default_distribution"`
	ClientTypes         map[string]ClientType                      `yaml:"client_types"`
	Techs               map[string]Tech                            `yaml:"techs"`
	Compliance          Compliance                                 `yaml:"compliance"`
	Zones               []Zone                                     `yaml:"zones"`
	FilteringPolicies   map[domain.FilteringPolicy]FilteringPolicy `yaml:"filtering_policies"`
	Tools               map[string]Tool                            `yaml:"tools"`
	Volume              VolumeRules                                `yaml:"volume"`
	Reputation          ReputationRules                            `yaml:"reputation"`
	Complaint           ComplaintRules                             `yaml:"complaint"`
	SpamTrap            SpamTrapRules                              `yaml:"spam_trap"`
	Satisfaction        SatisfactionRules                          `yaml:"satisfaction"`
	DestinationRevenue  DestinationRevenueRules                    `yaml:"destination_revenue"`
	Scoring             ScoringRules                               `yaml:"scoring"`
}

type ClientType struct {
	SpamTrapRisk float64 `yaml:"spam_trap_risk"`
}

// Tech は送信チームが購入できる技術アップグレード。
type Tech struct {
	Authentication     bool    `yaml:"authentication"`
	DeliveryBonus      float64 `yaml:"delivery_bonus"`
	ReputationBonus    float64 `yaml:"reputation_bonus"`
	ComplaintReduction float64 `yaml:"complaint_reduction"`
	Cost               int     `yaml:"cost"`
}

// Compliance は FromRound 以降 RequiredTech を持たないチームの配信率に Multiplier を掛ける規則。
type Compliance struct {
	RequiredTech string  `yaml:"required_tech"`
	FromRound    int     `yaml:"from_round"`
	Multiplier   float64 `yaml:"multiplier"`
}

type Zone struct {
	Name domain.ReputationZone `yaml:"name"`
	Min  float64               `yaml:"min"`
	Rate float64               `yaml:"rate"`
}

type FilteringPolicy struct {
	DeliveryPenalty float64 `yaml:"delivery_penalty"`
	SpamBlocking    float64 `yaml:"spam_blocking"`
	FalsePositive   float64 `yaml:"false_positive"`
}

// Tool は宛先側ツール。差分はパーセントポイント。
type Tool struct {
	BlockingDelta      float64 `yaml:"blocking_delta"`
	FalsePositiveDelta float64 `yaml:"false_positive_delta"`
}

type VolumeRules struct {
	ListHygieneReduction map[domain.RiskTier]float64 `yaml:"list_hygiene_reduction"`
}

type ReputationRules struct {
	RiskDelta   map[domain.RiskTier]float64 `yaml:"risk_delta"`
	WarmupBonus float64                     `yaml:"warmup_bonus"`
}

type ComplaintRules struct {
	ListHygieneReduction float64                     `yaml:"list_hygiene_reduction"`
	ContentFilteringTech string                      `yaml:"content_filtering_tech"`
	Thresholds           []domain.ComplaintThreshold `yaml:"thresholds"`
}

type SpamTrapRules struct {
	NetworkMultiplier float64 `yaml:"network_multiplier"`
	PenaltyPerHit     float64 `yaml:"penalty_per_hit"`
	PenaltyFloor      float64 `yaml:"penalty_floor"`
}

type SatisfactionRules struct {
	Baseline            float64 `yaml:"baseline"`
	BlockedWeight       float64 `yaml:"blocked_weight"`
	SpamThroughWeight   float64 `yaml:"spam_through_weight"`
	FalsePositiveWeight float64 `yaml:"false_positive_weight"`
	BlockingCeiling     float64 `yaml:"blocking_ceiling"`
	FalsePositiveFloor  float64 `yaml:"false_positive_floor"`
}

type SatisfactionTier struct {
	Name       string  `yaml:"name"`
	Min        float64 `yaml:"min"`
	Multiplier float64 `yaml:"multiplier"`
}

type DestinationRevenueRules struct {
	Kingdoms     map[string]int     `yaml:"kingdoms"`
	VolumeUnit   float64            `yaml:"volume_unit"`
	BonusPerUnit float64            `yaml:"bonus_per_unit"`
	Tiers        []SatisfactionTier `yaml:"tiers"`
}

type ScoringRules struct {
	ReputationWeights        map[string]float64 `yaml:"reputation_weights"`
	ReputationPoints         float64            `yaml:"reputation_points"`
	RevenuePoints            float64            `yaml:"revenue_points"`
	TechnicalPoints          float64            `yaml:"technical_points"`
	TechSpendCap             float64            `yaml:"tech_spend_cap"`
	QualificationThreshold   float64            `yaml:"qualification_threshold"`
	IndustryProtectionWeight float64            `yaml:"industry_protection_weight"`
	CoordinationPoints       float64            `yaml:"coordination_points"`
	UserSatisfactionWeight   float64            `yaml:"user_satisfaction_weight"`
	MaxScore                 float64            `yaml:"max_score"`
	SuccessThreshold         float64            `yaml:"success_threshold"`
}

// SpamTrapRisk はクライアント種別の基礎スパムトラップリスクを返す。
func (c *Catalog) SpamTrapRisk(clientType string) (float64, error) {
	ct, ok := c.ClientTypes[clientType]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownClientType, clientType)
	}
	return ct.SpamTrapRisk, nil
}

func (c *Catalog) Tech(id string) (Tech, error) {
	t, ok := c.Techs[id]
	if !ok {
		return Tech{}, fmt.Errorf("%w: %s", ErrUnknownTech, id)
	}
	return t, nil
}

func (c *Catalog) Tool(id string) (Tool, error) {
	t, ok := c.Tools[id]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrUnknownTool, id)
	}
	return t, nil
}

// Policy はフィルタリングポリシーの値を返す。空文字は permissive として扱う。
func (c *Catalog) Policy(p domain.FilteringPolicy) (FilteringPolicy, error) {
	if p == "" {
		p = domain.FilteringPermissive
	}
	fp, ok := c.FilteringPolicies[p]
	if !ok {
		return FilteringPolicy{}, fmt.Errorf("%w: %s", ErrUnknownPolicy, p)
	}
	return fp, nil
}

// KingdomBaseRevenue は宛先キングダムの基礎収益を返す。
func (c *Catalog) KingdomBaseRevenue(kingdom string) (int, error) {
	v, ok := c.DestinationRevenue.Kingdoms[kingdom]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKingdom, kingdom)
	}
	return v, nil
}

// ListHygieneRetention はリスト衛生適用後に残るボリュームの割合を返す。
func (c *Catalog) ListHygieneRetention(risk domain.RiskTier) (float64, error) {
	r, ok := c.Volume.ListHygieneReduction[risk]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRiskTier, risk)
	}
	return 1 - r, nil
}

func (c *Catalog) RiskDelta(risk domain.RiskTier) (float64, error) {
	d, ok := c.Reputation.RiskDelta[risk]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRiskTier, risk)
	}
	return d, nil
}

// ZoneFor はレピュテーション値が属する帯を返す。Zones は Min の降順に並んでいる前提。
func (c *Catalog) ZoneFor(reputation float64) Zone {
	for _, z := range c.Zones {
		if reputation >= z.Min {
			return z
		}
	}
	return c.Zones[len(c.Zones)-1]
}

// TierFor は満足度に対応する収益倍率の段階を返す。
func (c *Catalog) TierFor(satisfaction float64) SatisfactionTier {
	tiers := c.DestinationRevenue.Tiers
	for _, t := range tiers {
		if satisfaction >= t.Min {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// DistributionFor はクライアントの宛先配分を返す。未設定ならカタログの既定配分。
func (c *Catalog) DistributionFor(client domain.Client) map[string]float64 {
	if len(client.DestinationDistribution) > 0 {
		return client.DestinationDistribution
	}
	return c.DefaultDistribution
}
