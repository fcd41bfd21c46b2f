package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   int64             `json:"id"`
	Tags map[string]string `json:"tags"`
}

func TestCacheService_RoundTripReturnsCopy(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)

	orig := cachedThing{ID: 1, Tags: map[string]string{"a": "b"}}
	cs.Set("k", orig, time.Minute)

	var got cachedThing
	require.True(t, cs.GetInto("k", &got))
	assert.Equal(t, orig, got)

	got.Tags["a"] = "mutated"
	var again cachedThing
	require.True(t, cs.GetInto("k", &again))
	assert.Equal(t, "b", again.Tags["a"])
}

func TestCacheService_MissAndDelete(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)

	var got cachedThing
	assert.False(t, cs.GetInto("absent", &got))

	cs.Set("k", cachedThing{ID: 2}, time.Minute)
	cs.Delete("k")
	assert.False(t, cs.GetInto("k", &got))
}

func TestCacheService_Expiry(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)

	cs.Set("k", cachedThing{ID: 3}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	var got cachedThing
	assert.False(t, cs.GetInto("k", &got))
}

func TestCacheService_UndecodableIsMiss(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)
	cs.Set("k", "just a string", time.Minute)

	var got cachedThing
	assert.False(t, cs.GetInto("k", &got))
}
