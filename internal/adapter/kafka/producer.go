package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/oddsfair/slipexchange/internal/domain"
	"github.com/oddsfair/slipexchange/internal/port"
)

var _ port.TradePublisher = (*Producer)(nil)

// Producer publishes trade-executed events. Messages are keyed by slip
// ID so consumers see one slip's trades in order.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) PublishTradeExecuted(ctx context.Context, ev *domain.TradeExecutedEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.SlipID),
		Value: value,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
