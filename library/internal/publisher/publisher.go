package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"github.com/trivedii/library-management-api/library/internal/model"
	"github.com/trivedii/library-management-api/pkg/kafka"
	"go.uber.org/zap"
)

//go:generate go run github.com/golang/mock/mockgen -source=publisher.go -destination=mocks/mock.go

// EventPublisher appends book status facts to the durable event log. There
// is no internal retry: a failed append is the caller's problem.
type EventPublisher interface {
	Publish(ctx context.Context, event model.BookStatusEvent) (string, error)
}

type bookEventPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func New(producer sarama.SyncProducer, log *zap.Logger) *bookEventPublisher {
	return &bookEventPublisher{
		producer: producer,
		topic:    kafka.BookStatusTopic,
		log:      log.Named("publisher"),
	}
}

func (p *bookEventPublisher) Publish(_ context.Context, event model.BookStatusEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", errors.Wrap(err, "marshal book status event")
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", event.BookID)),
		Value: sarama.StringEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Error("publish book status event",
			zap.Int64("bookId", event.BookID), zap.Error(err))
		return "", err
	}

	recordID := fmt.Sprintf("%d-%d", partition, offset)
	p.log.Info("published book status event",
		zap.String("recordId", recordID),
		zap.Int64("bookId", event.BookID),
		zap.String("eventId", event.EventID))
	return recordID, nil
}
