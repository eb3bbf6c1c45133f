package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	appdomain "github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/application/state"
	"github.com/touka-aoi/inbox-kingdoms/server/domain"
)

func TestReport_RoundResolved(t *testing.T) {
	res := appdomain.RoundResolution{
		Round: 2,
		Results: appdomain.ResolutionResults{Teams: []appdomain.TeamResult{
			{Team: "alpha", Revenue: appdomain.RevenueResult{ActualRevenue: 343}},
		}},
	}
	payload, _ := json.Marshal(res)
	data, _ := json.Marshal(domain.Event{Type: state.EventRoundResolved, Room: "ROOM", Data: payload})

	var buf bytes.Buffer
	if err := report(data, slog.New(slog.NewTextHandler(&buf, nil))); err != nil {
		t.Fatalf("report returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "team=alpha") || !strings.Contains(out, "revenue=343") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestReport_InvalidEvent(t *testing.T) {
	var buf bytes.Buffer
	if err := report([]byte("not json"), slog.New(slog.NewTextHandler(&buf, nil))); err == nil {
		t.Fatalf("expected decode error")
	}
}
