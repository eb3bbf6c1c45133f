package calculator

import (
	"errors"
	"reflect"
	"testing"

	"github.com/touka-aoi/inbox-kingdoms/application/catalog"
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

func TestRoll_Deterministic(t *testing.T) {
	a := Roll("ROOM", "1", "alpha", "c1", "gmail")
	b := Roll("ROOM", "1", "alpha", "c1", "gmail")
	if a != b {
		t.Fatalf("expected identical rolls, got %v and %v", a, b)
	}
	if a < 0 || a >= 1 {
		t.Fatalf("roll out of range: %v", a)
	}
	variants := [][]string{
		{"ROOM2", "1", "alpha", "c1", "gmail"},
		{"ROOM", "2", "alpha", "c1", "gmail"},
		{"ROOM", "1", "beta", "c1", "gmail"},
		{"ROOM", "1", "alpha", "c2", "gmail"},
		{"ROOM", "1", "alpha", "c1", "yahoo"},
	}
	for _, v := range variants {
		if Roll(v...) == a {
			t.Fatalf("changing a seed component should change the roll: %v", v)
		}
	}
}

func spamTrapTeam(mult float64) domain.SenderTeam {
	st := active(1)
	if mult != 0 {
		st.SpamTrapModifiers = []domain.Modifier{{ID: "risky", Source: domain.SourceIncident, Kind: domain.ModifierRoundMultiplier, Multiplier: mult}}
	}
	return team("alpha",
		[]domain.Client{
			client("c1", "re_engagement", 10000, domain.RiskHigh, 2),
			client("c2", "re_engagement", 10000, domain.RiskHigh, 2),
		},
		map[string]domain.ClientState{"c1": st, "c2": st},
	)
}

func TestSpamTrap_Reproducible(t *testing.T) {
	calc := newTestCalculator(t)
	tm := spamTrapTeam(0)
	in := SpamTrapInput{RoomCode: "ROOM", Round: 2, Team: tm, Destinations: defaultDestinations(), Volume: resolveVolume(t, calc, tm, 2)}

	first, err := calc.SpamTrap(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := calc.SpamTrap(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results")
	}
	if len(first.Rolls) != 6 || len(first.Clients) != 2 {
		t.Fatalf("expected 2 client rolls and 6 destination rolls, got %d/%d", len(first.Clients), len(first.Rolls))
	}
}

func TestSpamTrap_PenaltyFloor(t *testing.T) {
	calc := newTestCalculator(t)
	// リスク 0.15 × 10 = 1.5 なので全ロールがヒットする。
	tm := spamTrapTeam(10)
	in := SpamTrapInput{RoomCode: "ROOM", Round: 1, Team: tm, Destinations: defaultDestinations(), Volume: resolveVolume(t, calc, tm, 1)}

	res, err := calc.SpamTrap(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.HitCount != 6 {
		t.Fatalf("expected 6 hits, got %d", res.HitCount)
	}
	if res.ReputationPenalty != -15 || !res.CapApplied {
		t.Fatalf("expected capped -15, got %v cap=%v", res.ReputationPenalty, res.CapApplied)
	}
	// 各宛先 2 ヒットで -10 ずつ、合計 -30 を -15 に按分する。
	var applied float64
	for d, p := range res.PenaltyByDestination {
		if !approx(p, -5) {
			t.Fatalf("destination %s: expected -5, got %v", d, p)
		}
		applied += p
	}
	if !approx(applied, res.ReputationPenalty) {
		t.Fatalf("applied penalties sum to %v, reported %v", applied, res.ReputationPenalty)
	}
	for _, c := range res.Clients {
		if !approx(c.Multiplier, 10) || !c.Flagged {
			t.Fatalf("unexpected client roll: %+v", c)
		}
	}
}

func TestSpamTrap_NetworkAmplifiesRisk(t *testing.T) {
	calc := newTestCalculator(t)
	tm := spamTrapTeam(0)
	dests := defaultDestinations()
	dests[0].OwnedTools = []string{domain.ToolSpamTrapNetwork}
	in := SpamTrapInput{RoomCode: "ROOM", Round: 1, Team: tm, Destinations: dests, Volume: resolveVolume(t, calc, tm, 1)}

	res, err := calc.SpamTrap(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range res.Rolls {
		want := 0.15
		if r.Destination == domain.DestinationGmail {
			want = 0.30
		}
		if !approx(r.Risk, want) {
			t.Fatalf("%s/%s: expected risk %v, got %v", r.ClientID, r.Destination, want, r.Risk)
		}
		if r.Hit != (r.Roll < r.Risk) {
			t.Fatalf("hit flag inconsistent: %+v", r)
		}
	}
	if res.CapApplied != (float64(res.HitCount)*-5 < -15) {
		t.Fatalf("cap flag inconsistent with %d hits", res.HitCount)
	}
	var applied float64
	for _, p := range res.PenaltyByDestination {
		applied += p
	}
	if !approx(applied, res.ReputationPenalty) {
		t.Fatalf("applied penalties sum to %v, reported %v", applied, res.ReputationPenalty)
	}
}

func TestSpamTrap_UnknownClientType(t *testing.T) {
	calc := newTestCalculator(t)
	tm := team("alpha",
		[]domain.Client{client("c1", "crypto_scammer", 1000, domain.RiskHigh, 5)},
		map[string]domain.ClientState{"c1": active(1)},
	)
	_, err := calc.SpamTrap(SpamTrapInput{RoomCode: "ROOM", Round: 1, Team: tm, Destinations: defaultDestinations(), Volume: resolveVolume(t, calc, tm, 1)})
	if !errors.Is(err, catalog.ErrUnknownClientType) {
		t.Fatalf("expected ErrUnknownClientType, got %v", err)
	}
}
