package service

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/touka-aoi/inbox-kingdoms/application/catalog"
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/application/request"
	"github.com/touka-aoi/inbox-kingdoms/utils"
)

// distributionTolerance は宛先配分の合計が 100 からずれてよい幅。
const distributionTolerance = 0.5

var defaultCatalog = sync.OnceValue(catalog.Default)

// SimpleValidator は最低限の入力検証を提供するデフォルト実装。
// カタログに存在しない ID の検出は計算器側に任せる。
// Catalog は配分の既定値の解決に使い、nil なら埋め込みの既定カタログを使う。
type SimpleValidator struct {
	Catalog *catalog.Catalog
}

func (v SimpleValidator) ResolveRound(req request.ResolveRound) error {
	snap := req.Snapshot
	if snap.RoomCode == "" {
		return errors.New("room code is required")
	}
	if snap.Round < 1 {
		return fmt.Errorf("round must be positive, got %d", snap.Round)
	}

	destinations := make(map[string]struct{}, len(snap.Destinations))
	for _, d := range snap.Destinations {
		if d.Name == "" {
			return errors.New("destination name is required")
		}
		if _, dup := destinations[d.Name]; dup {
			return fmt.Errorf("duplicate destination %s", d.Name)
		}
		destinations[d.Name] = struct{}{}
	}

	teams := make(map[string]struct{}, len(snap.Teams))
	for _, t := range snap.Teams {
		if t.Name == "" {
			return errors.New("team name is required")
		}
		if _, dup := teams[t.Name]; dup {
			return fmt.Errorf("duplicate team %s", t.Name)
		}
		teams[t.Name] = struct{}{}
		if err := validateTeam(t); err != nil {
			return fmt.Errorf("team %s: %w", t.Name, err)
		}
		if err := v.validateDistribution(t, destinations); err != nil {
			return fmt.Errorf("team %s: %w", t.Name, err)
		}
	}
	return nil
}

func (SimpleValidator) Finalize(req request.Finalize) error {
	if req.RoomCode == "" {
		return errors.New("room code is required")
	}
	if req.Investigations < 0 {
		return errors.New("investigations must not be negative")
	}
	seen := make(map[string]struct{}, len(req.Teams))
	for _, t := range req.Teams {
		if t.Name == "" {
			return errors.New("team name is required")
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("duplicate team %s", t.Name)
		}
		seen[t.Name] = struct{}{}
		if t.TechSpend < 0 {
			return fmt.Errorf("team %s: tech spend must not be negative", t.Name)
		}
		for d, v := range t.Reputation {
			if !utils.Finite(v) {
				return fmt.Errorf("team %s: reputation for %s is not finite", t.Name, d)
			}
		}
	}
	return nil
}

// validateDistribution は稼働中クライアントの配分先がすべてラウンドの宛先に含まれるかを確かめる。
// 含まれない宛先への配分はどの宛先にも計上されず消えてしまう。
func (v SimpleValidator) validateDistribution(t domain.SenderTeam, destinations map[string]struct{}) error {
	cat := v.Catalog
	if cat == nil {
		cat = defaultCatalog()
	}
	for _, c := range t.Clients {
		if !t.ClientStates[c.ID].IsActive() {
			continue
		}
		for d, pct := range cat.DistributionFor(c) {
			if pct <= 0 {
				continue
			}
			if _, ok := destinations[d]; !ok {
				return fmt.Errorf("client %s: destination %s is not in the round", c.ID, d)
			}
		}
	}
	return nil
}

func validateTeam(t domain.SenderTeam) error {
	for d, v := range t.Reputation {
		if !utils.Finite(v) {
			return fmt.Errorf("reputation for %s is not finite", d)
		}
	}
	ids := make(map[string]struct{}, len(t.Clients))
	for _, c := range t.Clients {
		if c.ID == "" {
			return errors.New("client id is required")
		}
		if _, dup := ids[c.ID]; dup {
			return fmt.Errorf("duplicate client %s", c.ID)
		}
		ids[c.ID] = struct{}{}
		if c.BaseVolume < 0 || c.BaseRevenue < 0 {
			return fmt.Errorf("client %s: volume and revenue must not be negative", c.ID)
		}
		if !utils.Finite(c.BaseSpamRate) || c.BaseSpamRate < 0 || c.BaseSpamRate > 100 {
			return fmt.Errorf("client %s: spam rate %v out of range", c.ID, c.BaseSpamRate)
		}
		if len(c.DestinationDistribution) > 0 {
			var sum float64
			for _, pct := range c.DestinationDistribution {
				sum += pct
			}
			if math.Abs(sum-100) > distributionTolerance {
				return fmt.Errorf("client %s: distribution sums to %v", c.ID, sum)
			}
		}
		st := t.ClientStates[c.ID]
		for _, m := range slices.Concat(st.VolumeModifiers, st.SpamTrapModifiers) {
			if !utils.Finite(m.Multiplier) || m.Multiplier < 0 {
				return fmt.Errorf("client %s: modifier %s has invalid multiplier %v", c.ID, m.ID, m.Multiplier)
			}
		}
	}
	return nil
}
