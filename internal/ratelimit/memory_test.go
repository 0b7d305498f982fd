package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiter_FormCeiling(t *testing.T) {
	clk := newFakeClock()
	lim := New(NewMemoryStore(WithMemoryClock(clk.Now)), DefaultPolicy())
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := lim.CheckAndIncrement(ctx, "1.1.1.1", true)
		require.NoError(t, err)
		assert.False(t, d.Limited, "request %d", i)
		assert.Equal(t, i, d.Count)
		assert.Equal(t, 5, d.Limit)
	}

	d, err := lim.CheckAndIncrement(ctx, "1.1.1.1", true)
	require.NoError(t, err)
	assert.True(t, d.Limited)
	assert.Equal(t, 5, d.Count, "rejected requests do not increment")
}

func TestLimiter_APICeiling(t *testing.T) {
	lim := New(NewMemoryStore(), DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		d, err := lim.CheckAndIncrement(ctx, "1.1.1.1", false)
		require.NoError(t, err)
		require.False(t, d.Limited)
	}
	d, _ := lim.CheckAndIncrement(ctx, "1.1.1.1", false)
	assert.True(t, d.Limited)
	assert.Equal(t, 20, d.Limit)
}

func TestLimiter_KindsAndClientsAreIndependent(t *testing.T) {
	lim := New(NewMemoryStore(), DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = lim.CheckAndIncrement(ctx, "1.1.1.1", true)
	}
	d, _ := lim.CheckAndIncrement(ctx, "1.1.1.1", true)
	require.True(t, d.Limited)

	d, _ = lim.CheckAndIncrement(ctx, "1.1.1.1", false)
	assert.False(t, d.Limited, "api bucket unaffected by form bucket")

	d, _ = lim.CheckAndIncrement(ctx, "2.2.2.2", true)
	assert.False(t, d.Limited, "other client unaffected")
}

func TestLimiter_WindowReset(t *testing.T) {
	clk := newFakeClock()
	lim := New(NewMemoryStore(WithMemoryClock(clk.Now)), DefaultPolicy())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = lim.CheckAndIncrement(ctx, "ip", true)
	}

	clk.Advance(time.Minute)
	d, _ := lim.CheckAndIncrement(ctx, "ip", true)
	assert.True(t, d.Limited, "still inside the window at exactly resetAt")

	clk.Advance(time.Millisecond)
	d, _ = lim.CheckAndIncrement(ctx, "ip", true)
	assert.False(t, d.Limited)
	assert.Equal(t, 1, d.Count)
	assert.Equal(t, clk.Now().Add(time.Minute), d.ResetAt)
}

func TestNew_DefaultsZeroPolicy(t *testing.T) {
	lim := New(NewMemoryStore(), Policy{})
	assert.Equal(t, DefaultPolicy(), lim.Policy())
}

func TestMemoryStore_ConcurrentCeiling(t *testing.T) {
	lim := New(NewMemoryStore(), Policy{Window: time.Minute, APIMax: 50, FormMax: 5})
	ctx := context.Background()

	var passed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := lim.CheckAndIncrement(ctx, "ip", false)
			if err == nil && !d.Limited {
				passed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(50), passed.Load())
}

func TestMemoryStore_Sweep(t *testing.T) {
	clk := newFakeClock()
	s := NewMemoryStore(WithMemoryClock(clk.Now))
	ctx := context.Background()

	_, _ = s.Hit(ctx, "a", 5, time.Minute)
	clk.Advance(30 * time.Second)
	_, _ = s.Hit(ctx, "b", 5, time.Minute)
	require.Equal(t, 2, s.Len())

	clk.Advance(31 * time.Second)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_JanitorStopsWithContext(t *testing.T) {
	clk := newFakeClock()
	s := NewMemoryStore(WithMemoryClock(clk.Now))
	_, _ = s.Hit(context.Background(), "a", 5, time.Second)
	clk.Advance(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartJanitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
}
