package notifier_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trivedii/library-management-api/library/internal/model"
	"github.com/trivedii/library-management-api/library/internal/notifier"
	"github.com/trivedii/library-management-api/library/internal/wishlist"
)

type fakeResolver struct {
	users []int64
	err   error
	calls int
}

func (f *fakeResolver) InterestedUsers(context.Context, int64) ([]int64, error) {
	f.calls++
	return f.users, f.err
}

type fakeNotifier struct {
	notified []int64
	failFor  map[int64]error
}

func (f *fakeNotifier) Notify(_ context.Context, userID int64, _ model.BookStatusEvent) error {
	if err, ok := f.failFor[userID]; ok {
		return err
	}
	f.notified = append(f.notified, userID)
	return nil
}

func eventPayload(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(model.NewBookStatusEvent(3, "Dune", "Frank Herbert"))
	require.NoError(t, err)
	return data
}

func TestConsumer_Handle(t *testing.T) {
	t.Parallel()
	log := zap.NewExample().Named("test")

	t.Run("notifies every interested user and acks", func(t *testing.T) {
		resolver := &fakeResolver{users: []int64{1001, 1002, 1003}}
		sink := &fakeNotifier{}
		c := notifier.NewConsumer(resolver, sink, log)

		require.True(t, c.Handle(context.Background(), eventPayload(t)))
		require.Equal(t, []int64{1001, 1002, 1003}, sink.notified)
	})

	t.Run("malformed entry is acked anyway", func(t *testing.T) {
		resolver := &fakeResolver{users: []int64{1001}}
		sink := &fakeNotifier{}
		c := notifier.NewConsumer(resolver, sink, log)

		require.True(t, c.Handle(context.Background(), []byte("not json")))
		require.Zero(t, resolver.calls)
		require.Empty(t, sink.notified)
	})

	t.Run("failed wishlist lookup leaves entry unacked", func(t *testing.T) {
		resolver := &fakeResolver{err: errors.New("db down")}
		sink := &fakeNotifier{}
		c := notifier.NewConsumer(resolver, sink, log)

		require.False(t, c.Handle(context.Background(), eventPayload(t)))
		require.Empty(t, sink.notified)
	})

	t.Run("one user's failure blocks neither the others nor the ack", func(t *testing.T) {
		resolver := &fakeResolver{users: []int64{1001, 1002, 1003}}
		sink := &fakeNotifier{failFor: map[int64]error{1002: errors.New("mailbox full")}}
		c := notifier.NewConsumer(resolver, sink, log)

		require.True(t, c.Handle(context.Background(), eventPayload(t)))
		require.Equal(t, []int64{1001, 1003}, sink.notified)
	})

	t.Run("redelivered entry is processed again without corruption", func(t *testing.T) {
		resolver := &fakeResolver{users: []int64{1001}}
		sink := &fakeNotifier{}
		c := notifier.NewConsumer(resolver, sink, log)

		payload := eventPayload(t)
		require.True(t, c.Handle(context.Background(), payload))
		require.True(t, c.Handle(context.Background(), payload))
		// at-least-once: duplicates are allowed, not suppressed
		require.Equal(t, []int64{1001, 1001}, sink.notified)
	})

	t.Run("survives repeated sessions after a rebalance", func(t *testing.T) {
		c := notifier.NewConsumer(&fakeResolver{}, &fakeNotifier{}, log)

		// a second group member joining re-runs Setup on the same Consumer
		require.NotPanics(t, func() {
			require.NoError(t, c.Setup(nil))
			require.NoError(t, c.Cleanup(nil))
			require.NoError(t, c.Setup(nil))
		})
	})

	t.Run("placeholder resolver keeps the original fixed user set", func(t *testing.T) {
		sink := &fakeNotifier{}
		c := notifier.NewConsumer(wishlist.Placeholder(), sink, log)

		require.True(t, c.Handle(context.Background(), eventPayload(t)))
		require.Equal(t, []int64{1001, 1002, 1003}, sink.notified)
	})
}
