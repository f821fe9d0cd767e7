package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/shortlink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRunnable struct {
	name        string
	order       *[]string
	started     bool
	shutdown    bool
	startErr    error
	shutdownErr error
}

func (m *mockRunnable) Start(context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}

	m.started = true

	return nil
}

func (m *mockRunnable) Shutdown() error {
	m.shutdown = true

	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}

	return m.shutdownErr
}

func TestConsumerGroup_Start(t *testing.T) {
	t.Run("starts all consumers", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		first, second := &mockRunnable{}, &mockRunnable{}

		group.Add(first)
		group.Add(second)

		require.NoError(t, group.Start(context.Background()))
		assert.True(t, first.started)
		assert.True(t, second.started)
	})

	t.Run("stops started consumers when one fails", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		first := &mockRunnable{}
		second := &mockRunnable{startErr: errors.New("start error")}

		group.Add(first)
		group.Add(second)

		err := group.Start(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "start consumer 1")
		assert.True(t, first.shutdown)
		assert.False(t, second.started)
	})
}

func TestConsumerGroup_Shutdown(t *testing.T) {
	t.Run("stops consumers in reverse order and closes the subscriber", func(t *testing.T) {
		sub := newMockSubscriber()
		group := messaging.NewConsumerGroup(sub, zap.NewNop())

		var order []string

		group.Add(&mockRunnable{name: "first", order: &order})
		group.Add(&mockRunnable{name: "second", order: &order})
		require.NoError(t, group.Start(context.Background()))

		require.NoError(t, group.Shutdown())
		assert.Equal(t, []string{"second", "first"}, order)
		assert.True(t, sub.closed)
	})

	t.Run("joins every error and still stops all", func(t *testing.T) {
		group := messaging.NewConsumerGroup(newMockSubscriber(), zap.NewNop())
		errFirst := errors.New("shutdown error 1")
		errSecond := errors.New("shutdown error 2")
		first := &mockRunnable{shutdownErr: errFirst}
		second := &mockRunnable{shutdownErr: errSecond}

		group.Add(first)
		group.Add(second)
		require.NoError(t, group.Start(context.Background()))

		err := group.Shutdown()

		require.ErrorIs(t, err, errFirst)
		require.ErrorIs(t, err, errSecond)
		assert.True(t, first.shutdown)
		assert.True(t, second.shutdown)
	})
}
