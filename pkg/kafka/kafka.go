package kafka

import (
	"context"
	"os"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	BookStatusTopic = "book-status-events"

	WishlistConsumerGroup = "wishlist-notification-group"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	host, err := os.Hostname()
	if err != nil {
		host = "library"
	}
	defaultCfg.ClientID = host + "-" + uuid.NewString()

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume runs the claim loop until ctx is cancelled. sarama returns from
// Consume on every rebalance, so the handler is re-entered in a loop.
func Consume(ctx context.Context, group sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, log *zap.Logger, topics ...string) {
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			log.Error("consumer group consume", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}
