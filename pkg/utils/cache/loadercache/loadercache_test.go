package loadercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-driverstats-go/pkg/utils/cache"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func counting(calls *int) LoaderFunc[string, string] {
	return func(ctx context.Context, key string) (*string, error) {
		*calls++
		if key == "bad" {
			return nil, errors.New("bad key")
		}
		v := "v-" + key
		return &v, nil
	}
}

func TestGetLoadsOnce(t *testing.T) {
	calls := 0
	c := New(WithLoader(counting(&calls)))
	v, err := c.Get(t.Context(), "a")
	require.NoError(t, err)
	assert.Equal(t, "v-a", *v)
	_, err = c.Get(t.Context(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())
}

func TestLoaderError(t *testing.T) {
	calls := 0
	c := New(WithLoader(counting(&calls)))
	_, err := c.Get(t.Context(), "bad")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestNoLoader(t *testing.T) {
	c := New[string, string]()
	_, err := c.Get(t.Context(), "a")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestExpiration(t *testing.T) {
	calls := 0
	clk := &clock{t: time.Date(2022, 3, 20, 12, 0, 0, 0, time.UTC)}
	c := New(
		WithLoader(counting(&calls)),
		WithExpiration[string, string](time.Minute),
		withClock[string, string](clk.now))

	_, err := c.Get(t.Context(), "a")
	require.NoError(t, err)
	clk.t = clk.t.Add(2 * time.Minute)
	_, err = c.Get(t.Context(), "a")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestInvalidate(t *testing.T) {
	calls := 0
	c := New(WithLoader(counting(&calls)))
	for _, k := range []string{"a", "b", "c"} {
		_, err := c.Get(t.Context(), k)
		require.NoError(t, err)
	}
	c.Invalidate(t.Context(), "a")
	assert.Equal(t, 2, c.Len())
	c.InvalidateAll(t.Context())
	assert.Equal(t, 0, c.Len())
	_, err := c.Get(t.Context(), "b")
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestMaxEntries(t *testing.T) {
	calls := 0
	clk := &clock{t: time.Date(2022, 3, 20, 12, 0, 0, 0, time.UTC)}
	c := New(
		WithLoader(counting(&calls)),
		WithMaxEntries[string, string](2),
		withClock[string, string](clk.now))
	for _, k := range []string{"a", "b", "c"} {
		_, err := c.Get(t.Context(), k)
		require.NoError(t, err)
		clk.t = clk.t.Add(time.Second)
	}
	assert.Equal(t, 2, c.Len())
	// a was the oldest and got evicted
	_, err := c.Get(t.Context(), "c")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	_, err = c.Get(t.Context(), "a")
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
}
