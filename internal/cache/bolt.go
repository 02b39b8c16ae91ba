package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// partitionRecord is how a partition is stored in the bolt database
type partitionRecord struct {
	Name      string `boltholdKey:"Name"`
	Data      []byte
	UpdatedAt time.Time
}

// BoltBackend stores partitions as records of one bolthold store
type BoltBackend struct {
	store *bolthold.Store
}

var _ Backend = (*BoltBackend)(nil)

// OpenBoltBackend opens (or creates) the bolt database at path
func OpenBoltBackend(path string) (*BoltBackend, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	return &BoltBackend{store: store}, nil
}

// Read returns the stored partition bytes
func (b *BoltBackend) Read(name string) ([]byte, error) {
	var record partitionRecord
	if err := b.store.Get(name, &record); err != nil {
		if errors.Is(err, bolthold.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read partition %s: %w", name, err)
	}
	return record.Data, nil
}

// Write replaces the partition record in a single transaction
func (b *BoltBackend) Write(name string, data []byte) error {
	record := &partitionRecord{
		Name:      name,
		Data:      data,
		UpdatedAt: time.Now(),
	}
	if err := b.store.Upsert(name, record); err != nil {
		return fmt.Errorf("failed to write partition %s: %w", name, err)
	}
	return nil
}

// Remove deletes the partition record; a missing record is not an error
func (b *BoltBackend) Remove(name string) error {
	err := b.store.Delete(name, &partitionRecord{})
	if err != nil && !errors.Is(err, bolthold.ErrNotFound) {
		return fmt.Errorf("failed to remove partition %s: %w", name, err)
	}
	return nil
}

// Close closes the database
func (b *BoltBackend) Close() error {
	return b.store.Close()
}
