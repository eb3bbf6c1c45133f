package domain

import (
	"fmt"
	"slices"
)

// FirstActiveRoundOnly は ApplicableRounds 内で「初回稼働ラウンドのみ」を表す番兵値。
const FirstActiveRoundOnly = -1

// モディファイアのソース名。
const (
	SourceListHygiene = "list_hygiene"
	SourceWarmup      = "warmup"
	SourceIncident    = "incident"
)

// ModifierKind はモディファイアの種別。永続的な削減が先、ラウンド限定の乗数が後に適用される。
type ModifierKind uint8

const (
	ModifierPermanentReduction ModifierKind = iota + 1
	ModifierRoundMultiplier
)

func (k ModifierKind) String() string {
	switch k {
	case ModifierPermanentReduction:
		return "permanent_reduction"
	case ModifierRoundMultiplier:
		return "round_multiplier"
	default:
		return "unknown"
	}
}

// MarshalText は JSON のキー・値として種別名を使うためのもの。
func (k ModifierKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ModifierKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "permanent_reduction":
		*k = ModifierPermanentReduction
	case "round_multiplier":
		*k = ModifierRoundMultiplier
	default:
		return fmt.Errorf("domain: unknown modifier kind %q", text)
	}
	return nil
}

// Modifier はクライアントのボリュームまたはスパムトラップリスクに掛かる補正です。
//
// PermanentReduction の Multiplier は「残す割合」を表す。0 の場合はカタログの
// リスト衛生テーブルからリスク区分に応じた値を引く。
// ApplicableRounds が空なら全ラウンドで有効。
type Modifier struct {
	ID               string       `json:"id"`
	Source           string       `json:"source"`
	Kind             ModifierKind `json:"kind"`
	Multiplier       float64      `json:"multiplier"`
	ApplicableRounds []int        `json:"applicableRounds,omitempty"`
}

// AppliesTo はモディファイアが指定ラウンドで有効かを返します。
func (m Modifier) AppliesTo(round, firstActiveRound int) bool {
	if len(m.ApplicableRounds) == 0 {
		return true
	}
	if slices.Contains(m.ApplicableRounds, round) {
		return true
	}
	return slices.Contains(m.ApplicableRounds, FirstActiveRoundOnly) && round == firstActiveRound
}
