package calculator

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Roll はシード要素を ":" で連結した文字列の xxhash64 から [0,1) の値を作る。
// 同じ要素からは常に同じ値になり、外部のエントロピーは使わない。
func Roll(parts ...string) float64 {
	h := xxhash.Sum64String(strings.Join(parts, ":"))
	return float64(h>>11) / (1 << 53)
}

// clientRoll はクライアント単位のロール。
func clientRoll(room string, round int, team, clientID string) float64 {
	return Roll(room, strconv.Itoa(round), team, clientID)
}

// destinationRoll は (クライアント, 宛先) ごとのロール。
func destinationRoll(room string, round int, team, clientID, destination string) float64 {
	return Roll(room, strconv.Itoa(round), team, clientID, destination)
}
