// Package scroll persists and restores per-history-entry scroll offsets
// across client-side navigations.
//
// While a navigation is in flight, the offset of the scrollable container is
// recorded against the location being left. When the navigation settles, the
// offset previously recorded for the new location (if any) is applied. The
// container may still be growing at that point, so Restore applies the
// offset, checks it took effect, and retries a bounded number of times.
//
// Offsets live in a session-scoped Storage. MemoryStorage is a bounded LRU;
// RedisStorage shares offsets across server instances.
package scroll
