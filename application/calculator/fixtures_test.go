package calculator

import (
	"math"
	"testing"

	"github.com/touka-aoi/inbox-kingdoms/application/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	return New(nil)
}

func client(id, typ string, volume int, risk domain.RiskTier, spamRate float64) domain.Client {
	return domain.Client{
		ID:           id,
		Type:         typ,
		BaseVolume:   volume,
		BaseRevenue:  volume / 100,
		Risk:         risk,
		BaseSpamRate: spamRate,
	}
}

func active(firstRound int, mods ...domain.Modifier) domain.ClientState {
	return domain.ClientState{Status: domain.ClientActive, FirstActiveRound: firstRound, VolumeModifiers: mods}
}

func team(name string, clients []domain.Client, states map[string]domain.ClientState, tech ...string) domain.SenderTeam {
	return domain.SenderTeam{
		Name:         name,
		TechStack:    tech,
		Clients:      clients,
		ClientStates: states,
	}
}

func listHygiene(id string) domain.Modifier {
	return domain.Modifier{ID: id, Source: domain.SourceListHygiene, Kind: domain.ModifierPermanentReduction}
}

func warmup(id string) domain.Modifier {
	return domain.Modifier{
		ID:               id,
		Source:           domain.SourceWarmup,
		Kind:             domain.ModifierRoundMultiplier,
		Multiplier:       0.5,
		ApplicableRounds: []int{domain.FirstActiveRoundOnly},
	}
}

func incident(id string, mult float64, rounds ...int) domain.Modifier {
	return domain.Modifier{
		ID:               id,
		Source:           domain.SourceIncident,
		Kind:             domain.ModifierRoundMultiplier,
		Multiplier:       mult,
		ApplicableRounds: rounds,
	}
}

func defaultDestinations() []domain.Destination {
	return []domain.Destination{
		{Name: domain.DestinationGmail, Kingdom: domain.DestinationGmail},
		{Name: domain.DestinationOutlook, Kingdom: domain.DestinationOutlook},
		{Name: domain.DestinationYahoo, Kingdom: domain.DestinationYahoo},
	}
}
