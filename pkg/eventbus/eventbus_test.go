package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testEvent struct{}

func (testEvent) Name() string { return "test.event" }

func TestPublishCallsAllListeners(t *testing.T) {
	bus := New(zap.NewNop())
	var calls int32

	bus.Subscribe("test.event", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	bus.Subscribe("test.event", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("сбой слушателя")
	})
	bus.Subscribe("other.event", func(ctx context.Context, e Event) error {
		atomic.AddInt32(&calls, 100)
		return nil
	})

	bus.Publish(context.Background(), testEvent{})
	bus.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPublishSurvivesPanickingListener(t *testing.T) {
	bus := New(zap.NewNop())
	bus.Subscribe("test.event", func(ctx context.Context, e Event) error {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), testEvent{})
		bus.Wait()
	})
}

func TestPublishIgnoresCancelledRequestContext(t *testing.T) {
	bus := New(zap.NewNop())
	var ctxErr error
	bus.Subscribe("test.event", func(ctx context.Context, e Event) error {
		ctxErr = ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{})
	bus.Wait()

	assert.NoError(t, ctxErr)
}
