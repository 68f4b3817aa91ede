package storage

import (
	"context"
	"time"

	"github.com/communehq/membersearch/core"
)

// MemberRepository provides tenant-scoped read access to member records and
// their embeddings, plus the write operations the seeding tools use.
// Implementations must be thread-safe and support concurrent access.
type MemberRepository interface {
	// GetMember retrieves a single member by tenant and ID.
	// Returns ErrNotFound if the member doesn't exist in that tenant.
	GetMember(ctx context.Context, tenant core.TenantID, id core.ID) (*core.MemberRecord, error)

	// MembersByTenant retrieves every member record owned by the tenant.
	// The tenant boundary is structural: keys are tenant-prefixed, so a scan
	// cannot observe another tenant's rows.
	MembersByTenant(ctx context.Context, tenant core.TenantID) ([]*core.MemberRecord, error)

	// GetEmbedding retrieves the embedding record for one member.
	// Returns ErrNotFound if no embedding has been generated yet.
	GetEmbedding(ctx context.Context, tenant core.TenantID, memberID core.ID) (*core.EmbeddingRecord, error)

	// EmbeddingsByTenant retrieves all embedding records for the tenant.
	EmbeddingsByTenant(ctx context.Context, tenant core.TenantID) ([]*core.EmbeddingRecord, error)

	// PutMembers upserts member records. Owned by the external CRUD layer in
	// production; used here by the seeder and by tests.
	PutMembers(ctx context.Context, records ...*core.MemberRecord) error

	// PutEmbeddings upserts embedding records alongside their members.
	PutEmbeddings(ctx context.Context, records ...*core.EmbeddingRecord) error

	// Close closes the repository and releases resources.
	Close() error
}

// KV is a TTL-capable key-value store backing the embedding cache, the result
// cache, and the default session store. All operations are atomic single-key
// operations; no multi-key transactions are offered or needed.
type KV interface {
	// Get retrieves the value for key. Returns ErrNotFound if the key is
	// absent or its TTL has elapsed.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// SetTTL stores value under key. A zero ttl stores without expiry.
	// Implementations may coarsen expiry to whole seconds; callers must not
	// rely on sub-second TTL precision.
	SetTTL(ctx context.Context, key, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key []byte) error

	// DropPrefix removes every key with the given prefix.
	DropPrefix(ctx context.Context, prefix []byte) error

	// Update atomically applies fn to the current value of key (nil when
	// absent) and stores the returned value with the returned ttl. fn may be
	// invoked more than once under contention; it must be side-effect free.
	// Returning ErrSkipUpdate from fn leaves the stored value untouched.
	Update(ctx context.Context, key []byte, fn func(old []byte) ([]byte, time.Duration, error)) error

	// Close closes the store.
	Close() error
}
