// Package cache provides a generic, thread-safe LRU cache.
//
// The tenancy layer uses it as the bounded backing store of
// tenant.MemoryCache, which adds max-age semantics on top:
//
//	c := cache.NewLRUCache[string, entry](1000)
//	c.Put("principal-1", entry{...})
//	e, ok := c.Get("principal-1")
//
// RemoveIf lets callers drop an entry only when it still holds the value they
// inspected, which avoids deleting a fresher entry written concurrently.
package cache
