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


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/communehq/membersearch/core"
	"github.com/communehq/membersearch/storage"
)

// MemberRepository implements storage.MemberRepository on a shared Backend.
type MemberRepository struct {
	backend *Backend
}

var _ storage.MemberRepository = (*MemberRepository)(nil)

// NewMemberRepository creates a member repository over the backend.
func NewMemberRepository(backend *Backend) (*MemberRepository, error) {
	if backend == nil {
		return nil, storage.ErrBackendRequired
	}
	return &MemberRepository{backend: backend}, nil
}

// GetMember retrieves a single member by tenant and ID.
func (r *MemberRepository) GetMember(ctx context.Context, tenant core.TenantID, id core.ID) (*core.MemberRecord, error) {
	var record *core.MemberRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMemberKey(tenant, id))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalMemberRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// MembersByTenant retrieves every member record owned by the tenant.
func (r *MemberRepository) MembersByTenant(ctx context.Context, tenant core.TenantID) ([]*core.MemberRecord, error) {
	var records []*core.MemberRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMemberTenantPrefix(tenant)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.MemberRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalMemberRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetEmbedding retrieves the embedding record for one member.
func (r *MemberRepository) GetEmbedding(ctx context.Context, tenant core.TenantID, memberID core.ID) (*core.EmbeddingRecord, error) {
	var record *core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(tenant, memberID))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalEmbeddingRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// EmbeddingsByTenant retrieves all embedding records for the tenant.
func (r *MemberRepository) EmbeddingsByTenant(ctx context.Context, tenant core.TenantID) ([]*core.EmbeddingRecord, error) {
	var records []*core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeEmbeddingTenantPrefix(tenant)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// PutMembers upserts member records. Records are validated and stamped.
func (r *MemberRepository) PutMembers(ctx context.Context, records ...*core.MemberRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range records {
			if record.Id == 0 {
				record.Id = core.IDFromContent(string(record.TenantId) + "/" + record.Name)
			}
			if err := record.Validate(); err != nil {
				return err
			}
			if record.CreatedAt.IsZero() {
				record.CreatedAt = now
			}
			record.UpdatedAt = now

			key := makeMemberKey(record.TenantId, record.Id)
			if err := tx.Set(key, storage.MarshalMemberRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// PutEmbeddings upserts embedding records.
func (r *MemberRepository) PutEmbeddings(ctx context.Context, records ...*core.EmbeddingRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range records {
			if record.TenantId == "" {
				return core.ErrEmptyTenant
			}
			record.UpdatedAt = now
			key := makeEmbeddingKey(record.TenantId, record.MemberId)
			if err := tx.Set(key, storage.MarshalEmbeddingRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Close is a no-op; the shared backend owns the database handle.
func (r *MemberRepository) Close() error {
	return nil
}
