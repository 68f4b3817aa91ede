package core

import "time"

// VectorCacheEntry is a cached query embedding, keyed by the hash of the
// normalized text and model version.
type VectorCacheEntry struct {
	Vector       []float32
	ModelVersion string
	HitCount     int64
	LastUsed     time.Time
}

// CachedResponse is a stored ranked response. Cached responses replay
// byte-identically: the formatted text and ranked order are persisted as-is.
type CachedResponse struct {
	Text      string
	Intent    Intent
	Members   []RankedMember
	Broadened bool
	Degraded  bool
	HitCount  int64
	StoredAt  time.Time // set once on first store, never refreshed by hits
}
