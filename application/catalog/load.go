package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrInvalidCatalog = errors.New("catalog: invalid catalog")

// Default は埋め込みの既定カタログを毎回新しく読み込んで返す。呼び出し側が書き換えても共有されない。
func Default() *Catalog {
	c, err := parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is broken: %v", err))
	}
	return c
}

// Load は既定カタログの上に path のYAMLを重ねる。path が空なら既定カタログを返す。
func Load(path string) (*Catalog, error) {
	c, err := parse(defaultYAML)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.normalize()
	return c, nil
}

func parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.normalize()
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Zones) == 0 {
		return fmt.Errorf("%w: zones are empty", ErrInvalidCatalog)
	}
	if len(c.DestinationRevenue.Tiers) == 0 {
		return fmt.Errorf("%w: satisfaction tiers are empty", ErrInvalidCatalog)
	}
	if c.DestinationRevenue.VolumeUnit <= 0 {
		return fmt.Errorf("%w: volume unit must be positive", ErrInvalidCatalog)
	}
	if c.Scoring.TechSpendCap <= 0 {
		return fmt.Errorf("%w: tech spend cap must be positive", ErrInvalidCatalog)
	}
	if c.Compliance.RequiredTech != "" {
		if _, ok := c.Techs[c.Compliance.RequiredTech]; !ok {
			return fmt.Errorf("%w: compliance tech %s is not defined", ErrInvalidCatalog, c.Compliance.RequiredTech)
		}
	}
	for name, p := range c.FilteringPolicies {
		if p.SpamBlocking < 0 || p.SpamBlocking > 1 || p.FalsePositive < 0 || p.FalsePositive > 1 {
			return fmt.Errorf("%w: policy %s rates out of range", ErrInvalidCatalog, name)
		}
	}
	return nil
}

// normalize は段階表を下限の降順に並べ替える。
func (c *Catalog) normalize() {
	sort.SliceStable(c.Zones, func(i, j int) bool { return c.Zones[i].Min > c.Zones[j].Min })
	sort.SliceStable(c.DestinationRevenue.Tiers, func(i, j int) bool {
		return c.DestinationRevenue.Tiers[i].Min > c.DestinationRevenue.Tiers[j].Min
	})
	sort.SliceStable(c.Complaint.Thresholds, func(i, j int) bool {
		return c.Complaint.Thresholds[i].Rate < c.Complaint.Thresholds[j].Rate
	})
}
