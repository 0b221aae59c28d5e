package notifier

import (
	"context"
	"fmt"

	"github.com/trivedii/library-management-api/library/internal/model"
	"go.uber.org/zap"
)

// Notifier performs the per-user notification side effect.
type Notifier interface {
	Notify(ctx context.Context, userID int64, event model.BookStatusEvent) error
}

type logNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *logNotifier {
	return &logNotifier{log: log.Named("notify")}
}

func (n *logNotifier) Notify(_ context.Context, userID int64, event model.BookStatusEvent) error {
	n.log.Info(fmt.Sprintf("Notification prepared for user_id: %d - Book [%s] is now available.", userID, event.Title),
		zap.Int64("bookId", event.BookID),
		zap.String("eventId", event.EventID))
	return nil
}
