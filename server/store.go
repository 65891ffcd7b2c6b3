package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned by Store.Load for a key that was never saved
var ErrNotFound = errors.New("record not found")

// Store persists msgpack-encoded records by key
type Store interface {
	Load(key string, v interface{}) error
	Save(key string, v interface{}) error
}

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load decodes the record under key into v
func (s *MemoryStore) Load(key string, v interface{}) error {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := msgpack.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// Save encodes v under key
func (s *MemoryStore) Save(key string, v interface{}) error {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

// SQLiteStore keeps records in the kv table
type SQLiteStore struct {
	db *DB
}

// NewSQLiteStore creates a store over db
func NewSQLiteStore(db *DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load decodes the record under key into v
func (s *SQLiteStore) Load(key string, v interface{}) error {
	raw, err := s.db.GetKV(key)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

// Save encodes v under key
func (s *SQLiteStore) Save(key string, v interface{}) error {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.db.PutKV(key, raw)
}
