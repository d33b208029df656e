package store

import (
	"sync"

	"github.com/Cybeaster/BlogWebsite/internal/models"
)

// listingCache holds the last full listing read from disk. The generation
// counter moves on every invalidation, so a load that started before a write
// cannot store its (stale) result afterwards.
type listingCache struct {
	mu         sync.RWMutex
	posts      []models.Post
	valid      bool
	generation uint64
}

func (c *listingCache) get() ([]models.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		return nil, false
	}
	return clonePosts(c.posts), true
}

func (c *listingCache) begin() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *listingCache) store(generation uint64, posts []models.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.posts = clonePosts(posts)
	c.valid = true
}

func (c *listingCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.posts = nil
	c.valid = false
}

func clonePosts(posts []models.Post) []models.Post {
	out := make([]models.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}
