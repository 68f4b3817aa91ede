// Package storage defines the persistence interfaces for the member
// directory: a tenant-scoped member/embedding repository and a TTL-capable
// key-value store used by the caches and the session store. Serialization of
// all stored values uses the MUS binary format. The BadgerDB implementation
// lives in the badger subpackage.
package storage
