package badger

import (
	"fmt"

	"github.com/communehq/membersearch/core"
)

// Key prefixes for different data types. Member and embedding keys embed the
// tenant id so a prefix scan is structurally scoped to one tenant.
const (
	memberPrefix    = "mem"
	embeddingPrefix = "emb"
	kvPrefix        = "kv"
)

// makeMemberKey generates a key for a member record.
// Format: mem:<tenant>:<id>
func makeMemberKey(tenant core.TenantID, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", memberPrefix, tenant, id))
}

// makeMemberTenantPrefix generates the scan prefix for one tenant's members.
func makeMemberTenantPrefix(tenant core.TenantID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", memberPrefix, tenant))
}

// makeEmbeddingKey generates a key for an embedding record.
// Format: emb:<tenant>:<memberID>
func makeEmbeddingKey(tenant core.TenantID, memberID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", embeddingPrefix, tenant, memberID))
}

// makeEmbeddingTenantPrefix generates the scan prefix for one tenant's embeddings.
func makeEmbeddingTenantPrefix(tenant core.TenantID) []byte {
	return []byte(fmt.Sprintf("%s:%s:", embeddingPrefix, tenant))
}

// makeKVKey namespaces a caller key under the shared KV prefix so repository
// scans never observe cache or session values.
func makeKVKey(key []byte) []byte {
	out := make([]byte, 0, len(kvPrefix)+1+len(key))
	out = append(out, kvPrefix...)
	out = append(out, ':')
	return append(out, key...)
}
