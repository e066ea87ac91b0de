package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource counts fetches and hands out a distinguishable result.
type countingSource struct {
	calls int
	err   error
}

func (c *countingSource) NowAndUpcoming(_ context.Context, limit int) (NowAndUpcoming, error) {
	c.calls++
	if c.err != nil {
		return NowAndUpcoming{}, c.err
	}
	return NowAndUpcoming{Upcoming: []SimplifiedEvent{{Summary: "fetched"}}}, nil
}

func TestCachedUpcomingServesWithinTTL(t *testing.T) {
	source := &countingSource{}
	clock := time.Date(2025, 10, 30, 12, 0, 0, 0, time.UTC)

	c := NewCachedUpcoming(source, 300*time.Second)
	c.now = func() time.Time { return clock }

	first, err := c.NowAndUpcoming(context.Background(), 20)
	require.NoError(t, err)

	clock = clock.Add(299 * time.Second)
	second, err := c.NowAndUpcoming(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls, "second call within TTL must not refetch")
	assert.Equal(t, first, second)
}

func TestCachedUpcomingExpires(t *testing.T) {
	source := &countingSource{}
	clock := time.Date(2025, 10, 30, 12, 0, 0, 0, time.UTC)

	c := NewCachedUpcoming(source, 300*time.Second)
	c.now = func() time.Time { return clock }

	_, err := c.NowAndUpcoming(context.Background(), 20)
	require.NoError(t, err)

	clock = clock.Add(301 * time.Second)
	_, err = c.NowAndUpcoming(context.Background(), 20)
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls, "expired slot triggers exactly one new fetch")
}

func TestCachedUpcomingRecomputesForDifferentLimit(t *testing.T) {
	source := &countingSource{}
	c := NewCachedUpcoming(source, 300*time.Second)

	_, err := c.NowAndUpcoming(context.Background(), 20)
	require.NoError(t, err)
	_, err = c.NowAndUpcoming(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls)
}

func TestCachedUpcomingDoesNotCacheErrors(t *testing.T) {
	source := &countingSource{err: errors.New("boom")}
	c := NewCachedUpcoming(source, 300*time.Second)

	_, err := c.NowAndUpcoming(context.Background(), 20)
	require.Error(t, err)

	source.err = nil
	_, err = c.NowAndUpcoming(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestNewCachedUpcomingDefaultTTL(t *testing.T) {
	c := NewCachedUpcoming(&countingSource{}, 0)
	assert.Equal(t, DefaultCacheTTL, c.ttl)
}
