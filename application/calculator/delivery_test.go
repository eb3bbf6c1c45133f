package calculator

import (
	"errors"
	"slices"
	"testing"

	"github.com/touka-aoi/inbox-kingdoms/application/catalog"
	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

func TestDelivery_AuthenticationBonusStacks(t *testing.T) {
	calc := newTestCalculator(t)
	res, err := calc.Delivery(DeliveryInput{Reputation: 75, TechStack: []string{"spf", "dkim"}, Round: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Zone != domain.ZoneGood || res.BaseRate != 0.85 {
		t.Fatalf("expected good zone 0.85, got %s %v", res.Zone, res.BaseRate)
	}
	if !approx(res.FinalRate, 0.98) {
		t.Fatalf("expected 0.98, got %v", res.FinalRate)
	}
	names := breakdownNames(res.Breakdown)
	want := []string{"Base Rate", "Authentication Bonus", "Final Rate"}
	if !slices.Equal(names, want) {
		t.Fatalf("expected breakdown %v, got %v", want, names)
	}
}

func TestDelivery_CompliancePenaltyFromRoundThree(t *testing.T) {
	calc := newTestCalculator(t)
	res, err := calc.Delivery(DeliveryInput{Reputation: 75, TechStack: []string{"spf", "dkim"}, Round: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.CompliancePenalty {
		t.Fatalf("expected compliance penalty")
	}
	if !approx(res.FinalRate, 0.196) {
		t.Fatalf("expected 0.196, got %v", res.FinalRate)
	}
	names := breakdownNames(res.Breakdown)
	want := []string{"Base Rate", "Authentication Bonus", "Compliance Penalty", "Final Rate"}
	if !slices.Equal(names, want) {
		t.Fatalf("expected breakdown %v, got %v", want, names)
	}

	res, err = calc.Delivery(DeliveryInput{Reputation: 75, TechStack: []string{"spf", "dkim", "dmarc"}, Round: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CompliancePenalty || res.FinalRate != 1 {
		t.Fatalf("expected clamped 1.0 without penalty, got %+v", res)
	}
}

func TestDelivery_FilteringPenalty(t *testing.T) {
	calc := newTestCalculator(t)
	tests := []struct {
		policy domain.FilteringPolicy
		want   float64
	}{
		{domain.FilteringPermissive, 0.70},
		{domain.FilteringModerate, 0.68},
		{domain.FilteringStrict, 0.65},
		{domain.FilteringMaximum, 0.60},
	}
	for _, tt := range tests {
		res, err := calc.Delivery(DeliveryInput{Reputation: 55, Policy: tt.policy, Round: 1})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.policy, err)
		}
		if !approx(res.FinalRate, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.policy, tt.want, res.FinalRate)
		}
	}
}

func TestDelivery_ZoneBoundaries(t *testing.T) {
	calc := newTestCalculator(t)
	tests := []struct {
		reputation float64
		zone       domain.ReputationZone
	}{
		{100, domain.ZoneExcellent},
		{90, domain.ZoneExcellent},
		{89.9, domain.ZoneGood},
		{70, domain.ZoneGood},
		{50, domain.ZoneWarning},
		{30, domain.ZonePoor},
		{29.9, domain.ZoneBlacklist},
		{0, domain.ZoneBlacklist},
	}
	for _, tt := range tests {
		res, err := calc.Delivery(DeliveryInput{Reputation: tt.reputation, Round: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Zone != tt.zone {
			t.Fatalf("reputation %v: expected %s, got %s", tt.reputation, tt.zone, res.Zone)
		}
	}
}

func TestDelivery_UnknownTech(t *testing.T) {
	calc := newTestCalculator(t)
	_, err := calc.Delivery(DeliveryInput{Reputation: 70, TechStack: []string{"bimi"}, Round: 1})
	if !errors.Is(err, catalog.ErrUnknownTech) {
		t.Fatalf("expected ErrUnknownTech, got %v", err)
	}
}

func breakdownNames(items []domain.BreakdownItem) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names
}
