package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdown_ReverseOrderOnce(t *testing.T) {
	m := New(0, nil)
	var order []string
	m.Register("bolt", func(ctx context.Context) error {
		order = append(order, "bolt")
		return nil
	})
	m.Register("redis", func(ctx context.Context) error {
		order = append(order, "redis")
		return errors.New("already closed")
	})
	m.Register("skipped", nil)

	err := m.Shutdown(context.Background())
	assert.EqualError(t, err, "already closed")
	assert.Equal(t, []string{"redis", "bolt"}, order)

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 2)
}

func TestListen_StopIsIdempotent(t *testing.T) {
	m := New(0, nil)
	stop := m.Listen(func() {})
	stop()
	stop()
	m.Listen(nil)()
}
