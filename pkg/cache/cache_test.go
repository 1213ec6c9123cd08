package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath/gateway/pkg/core"
)

func TestKeyIsDeterministic(t *testing.T) {
	payload := core.Payload{Prompt: "hello", MaxTokens: 100, Temperature: 0.7}

	a := Key("test:chat", core.OperationText, payload)
	b := Key("test:chat", core.OperationText, payload)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestKeyVariesByComponent(t *testing.T) {
	payload := core.Payload{Prompt: "hello"}
	base := Key("test:chat", core.OperationText, payload)

	assert.NotEqual(t, base, Key("test:other", core.OperationText, payload))
	assert.NotEqual(t, base, Key("test:chat", core.OperationEmbedding, payload))
	assert.NotEqual(t, base, Key("test:chat", core.OperationText, core.Payload{Prompt: "goodbye"}))
}

func TestGetSetRoundtrip(t *testing.T) {
	c, err := New(Config{Enabled: true, TTL: time.Hour, MaxEntries: 10})
	require.NoError(t, err)

	c.Set("k1", core.Result{Text: "cached response"}, 0.05)

	entry, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "cached response", entry.Result.Text)
	assert.Equal(t, 0.05, entry.Cost)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestDisabledCacheReadsAbsent(t *testing.T) {
	c, err := New(Config{Enabled: false, TTL: time.Hour, MaxEntries: 10})
	require.NoError(t, err)

	c.Set("k1", core.Result{Text: "x"}, 0.01)

	_, ok := c.Get("k1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
	assert.False(t, c.Enabled())
}

func TestExpiryIsLazy(t *testing.T) {
	c, err := New(Config{Enabled: true, TTL: time.Minute, MaxEntries: 10})
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k1", core.Result{Text: "x"}, 0.01)

	_, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Size())

	// Exactly at the TTL boundary the entry is already expired
	now = now.Add(time.Minute)
	_, ok = c.Get("k1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size(), "expired entry removed on access")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Expirations)
}

func TestEvictionIsInsertionOrderNotLRU(t *testing.T) {
	c, err := New(Config{Enabled: true, TTL: time.Hour, MaxEntries: 2})
	require.NoError(t, err)

	c.Set("first", core.Result{Text: "1"}, 0)
	c.Set("second", core.Result{Text: "2"}, 0)

	// Reading the older entry must not protect it from eviction
	_, ok := c.Get("first")
	require.True(t, ok)

	c.Set("third", core.Result{Text: "3"}, 0)

	_, ok = c.Get("first")
	assert.False(t, ok, "earliest-inserted entry evicted despite recent read")
	_, ok = c.Get("second")
	assert.True(t, ok)
	_, ok = c.Get("third")
	assert.True(t, ok)

	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestSetExistingKeyAtCapacityDoesNotEvict(t *testing.T) {
	c, err := New(Config{Enabled: true, TTL: time.Hour, MaxEntries: 2})
	require.NoError(t, err)

	c.Set("a", core.Result{Text: "1"}, 0)
	c.Set("b", core.Result{Text: "2"}, 0)
	c.Set("a", core.Result{Text: "updated"}, 0)

	assert.Equal(t, 2, c.Size())
	entry, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "updated", entry.Result.Text)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), core.Result{}, 0)
	}
	require.Equal(t, 5, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestStatsHitRate(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	c.Set("k1", core.Result{}, 0)
	c.Get("k1")
	c.Get("k1")
	c.Get("missing")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
	assert.Equal(t, 1000, stats.Capacity)
}

func TestNewNormalizesConfig(t *testing.T) {
	c, err := New(Config{Enabled: true})
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, DefaultConfig().MaxEntries, stats.Capacity)
}
