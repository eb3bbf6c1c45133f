package calculator

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

var clientTypes = []string{"premium_brand", "growing_startup", "aggressive_marketer", "re_engagement", "event_seasonal"}

func drawModifier(t *rapid.T, label string) domain.Modifier {
	kind := rapid.SampledFrom([]domain.ModifierKind{domain.ModifierPermanentReduction, domain.ModifierRoundMultiplier}).Draw(t, label+"-kind")
	m := domain.Modifier{ID: label, Source: domain.SourceIncident, Kind: kind}
	if kind == domain.ModifierPermanentReduction {
		m.Source = domain.SourceListHygiene
	} else {
		m.Multiplier = rapid.Float64Range(0, 10).Draw(t, label+"-mult")
	}
	m.ApplicableRounds = rapid.SliceOfN(rapid.IntRange(-1, 4), 0, 3).Draw(t, label+"-rounds")
	return m
}

func drawTeam(t *rapid.T) domain.SenderTeam {
	n := rapid.IntRange(0, 6).Draw(t, "clients")
	tm := domain.SenderTeam{
		Name:         "alpha",
		ClientStates: make(map[string]domain.ClientState, n),
	}
	for i := range n {
		id := fmt.Sprintf("c%d", i)
		c := domain.Client{
			ID:           id,
			Type:         rapid.SampledFrom(clientTypes).Draw(t, id+"-type"),
			BaseVolume:   rapid.IntRange(0, 200000).Draw(t, id+"-volume"),
			BaseRevenue:  rapid.IntRange(0, 5000).Draw(t, id+"-revenue"),
			Risk:         rapid.SampledFrom([]domain.RiskTier{domain.RiskLow, domain.RiskMedium, domain.RiskHigh}).Draw(t, id+"-risk"),
			BaseSpamRate: rapid.Float64Range(0, 8).Draw(t, id+"-spam"),
		}
		status := domain.ClientActive
		if rapid.Bool().Draw(t, id+"-paused") {
			status = domain.ClientPaused
		}
		st := domain.ClientState{Status: status, FirstActiveRound: rapid.IntRange(1, 4).Draw(t, id+"-first")}
		for j := range rapid.IntRange(0, 3).Draw(t, id+"-mods") {
			st.VolumeModifiers = append(st.VolumeModifiers, drawModifier(t, fmt.Sprintf("%s-m%d", id, j)))
		}
		tm.Clients = append(tm.Clients, c)
		tm.ClientStates[id] = st
	}
	return tm
}

func TestProperty_VolumeTotals(t *testing.T) {
	calc := New(nil)
	rapid.Check(t, func(t *rapid.T) {
		tm := drawTeam(t)
		round := rapid.IntRange(1, 4).Draw(t, "round")
		res, err := calc.Volume(tm, round)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sum := 0
		perDest := map[string]int{}
		for _, cv := range res.Clients {
			sum += cv.AdjustedVolume
			split := 0
			for d, v := range cv.PerDestination {
				perDest[d] += v
				split += v
			}
			// 宛先ごとの丸めで最大 ±1 ずつずれる。
			if diff := split - cv.AdjustedVolume; diff > len(cv.PerDestination) || diff < -len(cv.PerDestination) {
				t.Fatalf("client %s split %d differs from %d", cv.ClientID, split, cv.AdjustedVolume)
			}
		}
		if sum != res.TotalVolume {
			t.Fatalf("total %d != sum %d", res.TotalVolume, sum)
		}
		for d, v := range perDest {
			if res.PerDestination[d] != v {
				t.Fatalf("destination %s: %d != %d", d, res.PerDestination[d], v)
			}
		}
	})
}

func TestProperty_PausedClientsNeverAppear(t *testing.T) {
	calc := New(nil)
	rapid.Check(t, func(t *rapid.T) {
		tm := drawTeam(t)
		round := rapid.IntRange(1, 4).Draw(t, "round")
		paused := map[string]bool{}
		for id, st := range tm.ClientStates {
			if !st.IsActive() {
				paused[id] = true
			}
		}

		vol, err := calc.Volume(tm, round)
		if err != nil {
			t.Fatalf("volume: %v", err)
		}
		rev := calc.Revenue(tm, vol, 0.9)
		trap, err := calc.SpamTrap(SpamTrapInput{RoomCode: "R", Round: round, Team: tm, Destinations: defaultDestinations(), Volume: vol})
		if err != nil {
			t.Fatalf("spam trap: %v", err)
		}

		for _, c := range vol.Clients {
			if paused[c.ClientID] {
				t.Fatalf("paused client %s in volume", c.ClientID)
			}
		}
		for _, c := range rev.Clients {
			if paused[c.ClientID] {
				t.Fatalf("paused client %s in revenue", c.ClientID)
			}
		}
		for _, c := range trap.Clients {
			if paused[c.ClientID] {
				t.Fatalf("paused client %s in spam trap", c.ClientID)
			}
		}
		for _, r := range trap.Rolls {
			if paused[r.ClientID] {
				t.Fatalf("paused client %s in spam trap rolls", r.ClientID)
			}
		}
	})
}

func TestProperty_RatesStayInRange(t *testing.T) {
	calc := New(nil)
	policies := []domain.FilteringPolicy{domain.FilteringPermissive, domain.FilteringModerate, domain.FilteringStrict, domain.FilteringMaximum}
	techs := []string{"spf", "dkim", "dmarc", "content_filtering", "advanced_monitoring"}
	tools := []string{"content_analysis_filter", "auth_validator", "ml_system", "volume_throttling", "spam_trap_network"}
	rapid.Check(t, func(t *rapid.T) {
		delivery, err := calc.Delivery(DeliveryInput{
			Reputation: rapid.Float64Range(-20, 120).Draw(t, "reputation"),
			Policy:     rapid.SampledFrom(policies).Draw(t, "policy"),
			TechStack:  rapid.SliceOfNDistinct(rapid.SampledFrom(techs), 0, len(techs), rapid.ID[string]).Draw(t, "techs"),
			Round:      rapid.IntRange(1, 6).Draw(t, "round"),
		})
		if err != nil {
			t.Fatalf("delivery: %v", err)
		}
		if delivery.FinalRate < 0 || delivery.FinalRate > 1 {
			t.Fatalf("final rate out of range: %v", delivery.FinalRate)
		}

		dest := domain.Destination{
			Name:              "gmail",
			Kingdom:           "gmail",
			FilteringPolicies: map[string]domain.FilteringPolicy{"alpha": rapid.SampledFrom(policies).Draw(t, "dest-policy")},
			OwnedTools:        rapid.SliceOfNDistinct(rapid.SampledFrom(tools), 0, len(tools), rapid.ID[string]).Draw(t, "tools"),
		}
		v := rapid.IntRange(0, 1000000).Draw(t, "volume")
		sat, err := calc.Satisfaction("alpha", []domain.Destination{dest},
			domain.VolumeResult{TotalVolume: v, PerDestination: map[string]int{"gmail": v}},
			rapid.Float64Range(0, 100).Draw(t, "complaint"))
		if err != nil {
			t.Fatalf("satisfaction: %v", err)
		}
		if s := sat.AggregateSatisfaction; s < 0 || s > 100 {
			t.Fatalf("satisfaction out of range: %v", s)
		}
	})
}

func TestProperty_SpamTrapDeterministic(t *testing.T) {
	calc := New(nil)
	rapid.Check(t, func(t *rapid.T) {
		tm := drawTeam(t)
		round := rapid.IntRange(1, 4).Draw(t, "round")
		room := rapid.StringMatching(`[A-Z0-9]{4,8}`).Draw(t, "room")
		vol, err := calc.Volume(tm, round)
		if err != nil {
			t.Fatalf("volume: %v", err)
		}
		in := SpamTrapInput{RoomCode: room, Round: round, Team: tm, Destinations: defaultDestinations(), Volume: vol}
		a, err := calc.SpamTrap(in)
		if err != nil {
			t.Fatalf("spam trap: %v", err)
		}
		b, _ := calc.SpamTrap(in)
		for i := range a.Rolls {
			if a.Rolls[i] != b.Rolls[i] {
				t.Fatalf("roll %d differs: %+v vs %+v", i, a.Rolls[i], b.Rolls[i])
			}
		}
		if a.ReputationPenalty < calc.Catalog().SpamTrap.PenaltyFloor {
			t.Fatalf("penalty below floor: %v", a.ReputationPenalty)
		}
		var applied float64
		for _, p := range a.PenaltyByDestination {
			applied += p
		}
		if !approx(applied, a.ReputationPenalty) {
			t.Fatalf("applied penalties %v differ from reported %v", applied, a.ReputationPenalty)
		}
	})
}

func TestProperty_ComplaintReportsSingleThreshold(t *testing.T) {
	calc := New(nil)
	rapid.Check(t, func(t *rapid.T) {
		tm := drawTeam(t)
		vol, err := calc.Volume(tm, 1)
		if err != nil {
			t.Fatalf("volume: %v", err)
		}
		res, err := calc.Complaint(tm, vol, 1)
		if err != nil {
			t.Fatalf("complaint: %v", err)
		}
		var highest *domain.ComplaintThreshold
		for _, th := range calc.Catalog().Complaint.Thresholds {
			if res.AdjustedComplaintRate >= th.Rate {
				highest = &th
			}
		}
		switch {
		case highest == nil && res.Threshold != nil:
			t.Fatalf("unexpected threshold %+v at rate %v", res.Threshold, res.AdjustedComplaintRate)
		case highest != nil && (res.Threshold == nil || res.Threshold.Name != highest.Name || res.ReputationPenalty != highest.Penalty):
			t.Fatalf("expected %+v, got %+v", highest, res.Threshold)
		}
	})
}

func TestProperty_RevenueLinearInMultiplier(t *testing.T) {
	calc := New(nil)
	rapid.Check(t, func(t *rapid.T) {
		revenue := rapid.IntRange(0, 100000).Draw(t, "revenue")
		mult := rapid.Float64Range(0.1, 5).Draw(t, "mult")
		rate := rapid.Float64Range(0, 1).Draw(t, "rate")
		c := domain.Client{ID: "c1", Type: "premium_brand", BaseVolume: 1000, BaseRevenue: revenue, Risk: domain.RiskLow}

		single := domain.SenderTeam{Name: "a", Clients: []domain.Client{c}, ClientStates: map[string]domain.ClientState{
			"c1": {Status: domain.ClientActive, VolumeModifiers: []domain.Modifier{incident("m", mult)}},
		}}
		double := domain.SenderTeam{Name: "a", Clients: []domain.Client{c}, ClientStates: map[string]domain.ClientState{
			"c1": {Status: domain.ClientActive, VolumeModifiers: []domain.Modifier{incident("m", mult), incident("x2", 2)}},
		}}
		v1, _ := calc.Volume(single, 1)
		v2, _ := calc.Volume(double, 1)
		r1 := calc.Revenue(single, v1, rate).ActualRevenue
		r2 := calc.Revenue(double, v2, rate).ActualRevenue
		if diff := r2 - 2*r1; diff > 1 || diff < -1 {
			t.Fatalf("doubling multiplier: %d vs 2×%d", r2, r1)
		}
	})
}
