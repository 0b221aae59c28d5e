package notifier

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/trivedii/library-management-api/library/internal/model"
	"github.com/trivedii/library-management-api/library/internal/wishlist"
	"go.uber.org/zap"
)

// Consumer is one member of the wishlist notification consumer group. An
// entry is acknowledged only after every resolved user has been attempted;
// a crash before the ack leaves it re-deliverable to another member, so
// processing must tolerate duplicates.
type Consumer struct {
	resolver wishlist.Resolver
	notifier Notifier
	log      *zap.Logger
}

func NewConsumer(resolver wishlist.Resolver, notifier Notifier, log *zap.Logger) *Consumer {
	return &Consumer{
		resolver: resolver,
		notifier: notifier,
		log:      log.Named("consumer"),
	}
}

// Setup runs at the start of every session; rebalances start new sessions
// on the same Consumer, so it must stay re-entrant.
func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			if consumer.Handle(session.Context(), message.Value) {
				session.MarkMessage(message, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// Handle processes one log entry and reports whether it should be
// acknowledged. Malformed entries are acknowledged anyway so a poison entry
// cannot block the group; the loss is logged. A failed wishlist lookup
// leaves the entry unacknowledged for redelivery. Per-user notification
// failures are isolated: one user's failure blocks neither the others nor
// the ack.
func (consumer *Consumer) Handle(ctx context.Context, value []byte) bool {
	var event model.BookStatusEvent
	if err := json.Unmarshal(value, &event); err != nil {
		consumer.log.Error("malformed book status event, discarding",
			zap.ByteString("payload", value), zap.Error(err))
		return true
	}

	consumer.log.Info("book status event received",
		zap.Int64("bookId", event.BookID),
		zap.String("eventId", event.EventID))

	users, err := consumer.resolver.InterestedUsers(ctx, event.BookID)
	if err != nil {
		consumer.log.Error("resolve interested users",
			zap.Int64("bookId", event.BookID), zap.Error(err))
		return false
	}

	for _, userID := range users {
		if err := consumer.notifier.Notify(ctx, userID, event); err != nil {
			consumer.log.Error("notify user",
				zap.Int64("userId", userID),
				zap.Int64("bookId", event.BookID),
				zap.Error(err))
		}
	}

	consumer.log.Debug("processed wishlist notifications",
		zap.String("eventId", event.EventID), zap.Int("users", len(users)))
	return true
}
