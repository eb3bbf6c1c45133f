package domain_test

import (
	"context"
	"encoding/json"
	"testing"

	domain "github.com/touka-aoi/inbox-kingdoms/server/domain"
)

func TestHub_PublishFansOutPerRoom(t *testing.T) {
	hub := domain.NewHub(4, nil)
	a1 := hub.Subscribe("A")
	a2 := hub.Subscribe("A")
	b := hub.Subscribe("B")

	if err := hub.Publish(context.Background(), "round.resolved", []byte(`{"round":1}`), "A"); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}

	for _, sub := range []*domain.Subscription{a1, a2} {
		select {
		case msg := <-sub.C():
			var ev domain.Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				t.Fatalf("invalid event: %v", err)
			}
			if ev.Type != "round.resolved" || ev.Room != "A" || string(ev.Data) != `{"round":1}` {
				t.Fatalf("unexpected event: %+v", ev)
			}
		default:
			t.Fatalf("subscriber of room A did not receive the event")
		}
	}
	select {
	case msg := <-b.C():
		t.Fatalf("room B should not receive room A events, got %s", msg)
	default:
	}
}

func TestHub_DropsWhenSubscriberFull(t *testing.T) {
	hub := domain.NewHub(1, nil)
	sub := hub.Subscribe("A")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := hub.Publish(ctx, "round.resolved", []byte(`{}`), "A"); err != nil {
			t.Fatalf("publish returned error: %v", err)
		}
	}
	if got := len(sub.C()); got != 1 {
		t.Fatalf("expected buffered events to be capped at 1, got %d", got)
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := domain.NewHub(1, nil)
	sub := hub.Subscribe("A")
	if hub.Subscribers("A") != 1 {
		t.Fatalf("expected one subscriber")
	}

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	if _, ok := <-sub.C(); ok {
		t.Fatalf("expected channel to be closed")
	}
	if hub.Subscribers("A") != 0 {
		t.Fatalf("expected no subscribers after unsubscribe")
	}
}

func TestHub_RejectsInvalidPayload(t *testing.T) {
	hub := domain.NewHub(1, nil)
	if err := hub.Publish(context.Background(), "round.resolved", []byte("{not json"), "A"); err == nil {
		t.Fatalf("expected encode error for invalid payload")
	}
}
