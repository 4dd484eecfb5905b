package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wisespend/authcore/internal/common"
	"github.com/wisespend/authcore/internal/kvstore"
)

// keyPrefix namespaces user records inside the shared key-value store.
const keyPrefix = "user:"

// Repository reads and writes user records. Get returns common.ErrNotFound
// for unknown usernames; usernames are case-sensitive keys.
type Repository interface {
	Get(ctx context.Context, username string) (*Record, error)
	Save(ctx context.Context, record *Record) error
	Exists(ctx context.Context, username string) (bool, error)
}

// KVRepository stores records as JSON values in the key-value collaborator.
type KVRepository struct {
	store kvstore.Store
}

func NewKVRepository(store kvstore.Store) *KVRepository {
	return &KVRepository{store: store}
}

func (r *KVRepository) Get(ctx context.Context, username string) (*Record, error) {
	raw, err := r.store.Get(ctx, keyPrefix+username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	record := &Record{}
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, fmt.Errorf("decoding user record %q: %w", username, err)
	}
	return record, nil
}

func (r *KVRepository) Save(ctx context.Context, record *Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding user record %q: %w", record.Username, err)
	}
	if err := r.store.Set(ctx, keyPrefix+record.Username, raw); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *KVRepository) Exists(ctx context.Context, username string) (bool, error) {
	_, err := r.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
