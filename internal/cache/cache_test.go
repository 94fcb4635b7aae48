package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	c := New()

	c.Set("key", "value", time.Minute)

	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestCache_GetMissing(t *testing.T) {
	c := New()

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for absent key")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Set("key", 42, 5*time.Minute)

	// Still fresh just inside the TTL.
	current = current.Add(5 * time.Minute)
	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	// One tick past the TTL the entry is gone and lazily dropped.
	current = current.Add(time.Nanosecond)
	if _, ok := c.Get("key"); ok {
		t.Error("Expected expired entry to miss")
	}
	assert.Equal(t, 0, c.Len())
}

func TestCache_SetReplacesEntry(t *testing.T) {
	c := New()

	c.Set("key", "old", time.Minute)
	c.Set("key", "new", time.Minute)

	got, _ := c.Get("key")
	assert.Equal(t, "new", got)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Delete(t *testing.T) {
	c := New()

	c.Set("key", "value", time.Minute)
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("Expected miss after delete")
	}

	// Deleting an absent key is a no-op.
	c.Delete("missing")
}
