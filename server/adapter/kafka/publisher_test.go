package adapterkafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/touka-aoi/inbox-kingdoms/application/state"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewPublisher_RequiresBrokers(t *testing.T) {
	if _, err := NewPublisher(nil, "", nil); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("expected ErrNoBrokers, got %v", err)
	}
}

func TestNewWriter_ShortBatchTimeout(t *testing.T) {
	w := newWriter([]string{"localhost:9092"})
	if w.BatchTimeout != batchTimeout || w.BatchTimeout >= time.Second {
		t.Fatalf("expected batch timeout %v, got %v", batchTimeout, w.BatchTimeout)
	}
	if w.RequiredAcks != kafka.RequireAll {
		t.Fatalf("expected RequireAll, got %v", w.RequiredAcks)
	}
}

func TestTopicsFromEnv(t *testing.T) {
	t.Setenv("KAFKA_TOPIC_ROUND_RESOLVED", "rounds")
	t.Setenv("KAFKA_TOPIC_GAME_FINALIZED", " ")

	topics := TopicsFromEnv(state.EventRoundResolved, state.EventGameFinalized)
	if len(topics) != 1 || topics[state.EventRoundResolved] != "rounds" {
		t.Fatalf("unexpected topics: %v", topics)
	}

	p := newPublisher(&fakeWriter{}, "resolutions", topics)
	if got := p.topicFor(state.EventRoundResolved); got != "rounds" {
		t.Fatalf("expected mapped topic, got %s", got)
	}
	if got := p.topicFor(state.EventGameFinalized); got != "resolutions" {
		t.Fatalf("expected fallback topic, got %s", got)
	}
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, "resolutions", map[string]string{state.EventGameFinalized: "finals"})
	p.now = func() time.Time { return time.Unix(10, 0) }

	ctx := context.Background()
	if err := p.Publish(ctx, state.EventRoundResolved, []byte(`{"round":1}`), "ROOM"); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}
	if err := p.Publish(ctx, state.EventGameFinalized, []byte(`{}`), "ROOM"); err != nil {
		t.Fatalf("publish returned error: %v", err)
	}

	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	first := w.msgs[0]
	if first.Topic != "resolutions" || string(first.Key) != "ROOM" || string(first.Value) != `{"round":1}` {
		t.Fatalf("unexpected message: %+v", first)
	}
	if !first.Time.Equal(time.Unix(10, 0)) {
		t.Fatalf("unexpected time: %v", first.Time)
	}
	if len(first.Headers) != 1 || string(first.Headers[0].Value) != state.EventRoundResolved {
		t.Fatalf("unexpected headers: %+v", first.Headers)
	}
	if w.msgs[1].Topic != "finals" {
		t.Fatalf("expected mapped topic, got %s", w.msgs[1].Topic)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer to be closed, err=%v", err)
	}
}

func TestPublisher_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newPublisher(w, "resolutions", nil)
	if err := p.Publish(context.Background(), state.EventRoundResolved, nil, "ROOM"); err == nil {
		t.Fatalf("expected write error")
	}
}
