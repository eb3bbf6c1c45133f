package adapterkafka

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/touka-aoi/inbox-kingdoms/application/state"
)

var ErrNoBrokers = errors.New("kafka: at least one broker is required")

// batchTimeout は同期書き込みの待ち時間の上限。既定の1秒だと Publish が毎回その分待たされる。
const batchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher は解決イベントを Kafka に書き込む。メッセージキーはルームコード。
type Publisher struct {
	writer       messageWriter
	topic        string
	topicByEvent map[string]string
	now          func() time.Time
}

var _ state.Publisher = (*Publisher)(nil)

// NewPublisher は topicByEvent に無いイベントを topic に書く。
func NewPublisher(brokers []string, topic string, topicByEvent map[string]string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		topic = "inbox-kingdoms.resolutions"
	}
	return newPublisher(newWriter(brokers), topic, topicByEvent), nil
}

func newWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
	}
}

// TopicsFromEnv は KAFKA_TOPIC_<EVENT> からイベントごとのトピックを読む。
// <EVENT> はイベント種別を大文字にして "." を "_" に置き換えたもの (round.resolved なら ROUND_RESOLVED)。
func TopicsFromEnv(events ...string) map[string]string {
	topics := make(map[string]string, len(events))
	for _, e := range events {
		key := "KAFKA_TOPIC_" + strings.ToUpper(strings.ReplaceAll(e, ".", "_"))
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			topics[e] = v
		}
	}
	return topics
}

func newPublisher(w messageWriter, topic string, topicByEvent map[string]string) *Publisher {
	return &Publisher{
		writer:       w,
		topic:        topic,
		topicByEvent: topicByEvent,
		now:          time.Now,
	}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, payload []byte, key string) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topicFor(eventType),
		Key:   []byte(key),
		Value: payload,
		Time:  p.now().UTC(),
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	})
}

func (p *Publisher) topicFor(eventType string) string {
	if mapped, ok := p.topicByEvent[eventType]; ok && mapped != "" {
		return mapped
	}
	return p.topic
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
