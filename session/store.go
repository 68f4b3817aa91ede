// Copyright 2025 Commune Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package session keeps per-user conversation state and rate counters in an
// externalized TTL store, so process restarts and horizontal scaling never
// lose sessions.
package session

import (
	"context"
	"time"

	"github.com/communehq/membersearch/core"
)

// Defaults for session lifetime, history depth, and rate windows.
const (
	// DefaultTTL is the sliding session lifetime: each touch renews it.
	DefaultTTL = 30 * time.Minute

	// DefaultHistoryLimit caps stored turns per session, oldest evicted first.
	DefaultHistoryLimit = 10

	// DefaultRateWindow is the fixed window for both rate categories.
	DefaultRateWindow = time.Hour

	// DefaultMessageLimit bounds inbound messages per window.
	DefaultMessageLimit = 200

	// DefaultSearchLimit bounds ranker-backed searches per window.
	DefaultSearchLimit = 50
)

// Store persists sessions and per-user rate counters. Implementations must be
// safe for concurrent use; CheckAndIncrement in particular must stay atomic
// under concurrent calls for the same user.
type Store interface {
	// GetOrCreate returns the user's live session, creating an empty one when
	// none exists or the previous one expired. Reading renews the TTL.
	GetOrCreate(ctx context.Context, tenant core.TenantID, userID string) (*core.Session, error)

	// AppendTurn adds a turn to the session history, evicting the oldest
	// turn beyond the history cap, and renews the TTL.
	AppendTurn(ctx context.Context, tenant core.TenantID, userID string, turn core.Turn) error

	// CheckAndIncrement atomically bumps the user's counter for the category.
	// When the counter is already at the limit it returns *core.RateLimitError
	// and leaves the stored count untouched.
	CheckAndIncrement(ctx context.Context, tenant core.TenantID, userID string, category core.RateCategory, limit int64, window time.Duration) error

	// Close releases store resources.
	Close() error
}

// Limits bundles the rate configuration one orchestrator applies.
type Limits struct {
	MessageLimit int64
	SearchLimit  int64
	Window       time.Duration
}

// DefaultLimits returns the stock rate configuration.
func DefaultLimits() Limits {
	return Limits{
		MessageLimit: DefaultMessageLimit,
		SearchLimit:  DefaultSearchLimit,
		Window:       DefaultRateWindow,
	}
}
