// Package calculator はラウンド解決の各計算器をまとめたパッケージです。
// どの計算器も入力だけから結果を決め、ログも外部状態も持たない。
package calculator

import (
	"errors"
	"math"

	"github.com/touka-aoi/inbox-kingdoms/application/catalog"
)

var ErrUnknownModifierKind = errors.New("calculator: unknown modifier kind")

// Calculator はカタログの定数を使って各計算を行う。
type Calculator struct {
	cat *catalog.Catalog
}

// New はカタログを束ねた計算器を返す。nil の場合は埋め込みの既定カタログを使う。
func New(cat *catalog.Catalog) *Calculator {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Calculator{cat: cat}
}

// Catalog は計算器が参照しているカタログを返す。
func (c *Calculator) Catalog() *catalog.Catalog {
	return c.cat
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
