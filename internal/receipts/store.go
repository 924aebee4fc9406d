// Package receipts stores payment receipt attachments.
//
// Receipts are opaque blobs (photos, scans) attached to settlements. They
// live outside the relational ledger in a bbolt file keyed by a generated
// id; ledger rows only carry the key.
package receipts

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a receipt is not found.
var ErrNotFound = errors.New("receipt not found")

const bucketReceipts = "receipts"

// Receipt is a stored attachment.
type Receipt struct {
	Key         string    `json:"key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	Data        []byte    `json:"data"`
}

// Store represents the bbolt receipt store.
type Store struct {
	db *bolt.DB
}

// Open opens the receipt store and initializes its bucket.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketReceipts))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a receipt and returns its key.
func (s *Store) Save(fileName, contentType string, data []byte) (string, error) {
	key := uuid.NewString()
	receipt := Receipt{
		Key:         key,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now(),
		Data:        data,
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketReceipts))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketReceipts)
		}
		payload, err := json.Marshal(receipt)
		if err != nil {
			return fmt.Errorf("failed to marshal receipt: %w", err)
		}
		return b.Put([]byte(key), payload)
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Get retrieves a receipt by key.
func (s *Store) Get(key string) (*Receipt, error) {
	var receipt Receipt
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketReceipts))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketReceipts)
		}
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &receipt)
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Delete removes a receipt by key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketReceipts))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketReceipts)
		}
		if b.Get([]byte(key)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(key))
	})
}
