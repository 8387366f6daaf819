package llm

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuggestionCache(t *testing.T) {
	t.Run("basic operations", func(t *testing.T) {
		cache := newSuggestionCache(5 * time.Minute)
		defer cache.Close()

		_, _, hit := cache.get("non-existent")
		assert.False(t, hit)

		s := Suggestion{Folder: "Economics", Confidence: 0.9}
		cache.set("key1", s, true)
		cache.set("key2", Suggestion{}, false)

		got, ok, hit := cache.get("key1")
		assert.True(t, hit)
		assert.True(t, ok)
		assert.Equal(t, s, got)

		_, ok, hit = cache.get("key2")
		assert.True(t, hit, "misses are cached too")
		assert.False(t, ok)

		assert.Equal(t, 2, cache.size())
	})

	t.Run("expiration", func(t *testing.T) {
		cache := newSuggestionCache(50 * time.Millisecond)
		defer cache.Close()

		cache.set("key", Suggestion{Folder: "A"}, true)
		_, _, hit := cache.get("key")
		assert.True(t, hit)

		time.Sleep(100 * time.Millisecond)

		_, _, hit = cache.get("key")
		assert.False(t, hit)
	})

	t.Run("concurrent access", func(t *testing.T) {
		cache := newSuggestionCache(time.Minute)
		defer cache.Close()

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					cache.set("k", Suggestion{Folder: "A"}, true)
					_, _, _ = cache.get("k")
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, cache.size())
	})

	t.Run("double close", func(t *testing.T) {
		cache := newSuggestionCache(time.Minute)
		cache.Close()
		assert.NotPanics(t, cache.Close)
	})
}
