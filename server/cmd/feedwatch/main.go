package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"

	appdomain "github.com/touka-aoi/inbox-kingdoms/application/domain"
	"github.com/touka-aoi/inbox-kingdoms/application/state"
	"github.com/touka-aoi/inbox-kingdoms/server/domain"
	"github.com/touka-aoi/inbox-kingdoms/utils"
)

// feedwatch はルームのフィードを購読して解決結果の要約をログに出す。
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := utils.GetEnvDefault("ADDR", "localhost")
	port := utils.GetEnvDefault("PORT", "9090")
	rooms := utils.GetEnvList("FEED_ROOMS")
	if len(rooms) == 0 {
		slog.Error("FEED_ROOMS is required")
		os.Exit(1)
	}

	slog.Info("starting feed watchers", "rooms", rooms)

	var wg sync.WaitGroup
	for _, room := range rooms {
		wg.Add(1)
		go func(room string) {
			defer wg.Done()
			url := fmt.Sprintf("ws://%s:%s/rooms/%s/feed", addr, port, room)
			watch(ctx, url, logger.With("room", room))
		}(room)
	}

	wg.Wait()
	slog.Info("all watchers stopped")
}

func watch(ctx context.Context, url string, logger *slog.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := session(ctx, url, logger)
		if err != nil && ctx.Err() == nil {
			logger.Warn("feed session ended, reconnecting", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func session(ctx context.Context, url string, logger *slog.Logger) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()
	logger.Info("connected")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "shutdown")
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := report(data, logger); err != nil {
			logger.Warn("failed to decode event", "err", err)
		}
	}
}

func report(data []byte, logger *slog.Logger) error {
	var ev domain.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	switch ev.Type {
	case domain.EventPing:
		logger.Debug("ping")
	case state.EventRoundResolved:
		var res appdomain.RoundResolution
		if err := json.Unmarshal(ev.Data, &res); err != nil {
			return err
		}
		for _, t := range res.Results.Teams {
			logger.Info("team resolved",
				"round", res.Round,
				"team", t.Team,
				"volume", t.Volume.TotalVolume,
				"deliveryRate", t.AggregateDeliveryRate,
				"revenue", t.Revenue.ActualRevenue,
				"reputation", t.NewReputation,
			)
		}
	case state.EventGameFinalized:
		var out appdomain.FinalScoreOutput
		if err := json.Unmarshal(ev.Data, &out); err != nil {
			return err
		}
		logger.Info("game finalized", "winners", out.Winners, "tieBreak", out.TieBreak, "destinationSuccess", out.Destination.Success)
	default:
		logger.Info("event", "type", ev.Type)
	}
	return nil
}
