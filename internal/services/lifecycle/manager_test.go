package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainReleasesInReverseOrder(t *testing.T) {
	d := New(time.Second, nil)

	var order []string
	for _, name := range []string{"store", "exporter", "http"} {
		name := name
		d.Defer(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, d.Drain(context.Background()))
	assert.Equal(t, []string{"http", "exporter", "store"}, order)
}

func TestDrainAttemptsEverySubsystem(t *testing.T) {
	d := New(time.Second, nil)

	storeClosed := false
	d.Defer("store", func(context.Context) error {
		storeClosed = true
		return nil
	})
	d.Defer("exporter", func(context.Context) error {
		return errors.New("flush failed")
	})

	err := d.Drain(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush failed")
	assert.True(t, storeClosed, "a failing subsystem must not block the ones behind it")
}

func TestDrainTwiceIsNoop(t *testing.T) {
	d := New(time.Second, nil)

	calls := 0
	d.Defer("store", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, d.Drain(context.Background()))
	require.NoError(t, d.Drain(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestDeferIgnoresNil(t *testing.T) {
	d := New(time.Second, nil)
	d.Defer("ghost", nil)
	require.NoError(t, d.Drain(context.Background()))
}
