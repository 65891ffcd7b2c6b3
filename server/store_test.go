package main

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type storeRecord struct {
	Name  string         `msgpack:"name"`
	Count int            `msgpack:"count"`
	Tags  map[string]int `msgpack:"tags"`
}

func testStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(openTestDB(t)),
	}
}

func TestStoreSaveLoad(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			var got storeRecord
			if err := s.Load("missing", &got); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Load(missing) err = %v, want ErrNotFound", err)
			}

			in := storeRecord{Name: "alpha", Count: 3, Tags: map[string]int{"x": 1}}
			if err := s.Save("rec", in); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := s.Load("rec", &got); err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Name != "alpha" || got.Count != 3 || got.Tags["x"] != 1 {
				t.Errorf("loaded %+v", got)
			}

			in.Count = 7
			if err := s.Save("rec", in); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got = storeRecord{}
			s.Load("rec", &got)
			if got.Count != 7 {
				t.Errorf("overwrite not visible, count = %d", got.Count)
			}
		})
	}
}

// putRaw stores undecoded bytes, for exercising corrupt records
func (s *MemoryStore) putRaw(key string, raw []byte) {
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
}

func TestStoreCorruptRecord(t *testing.T) {
	mem := NewMemoryStore()
	mem.putRaw("bad", []byte{0xc1})
	var got storeRecord
	err := mem.Load("bad", &got)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("corrupt record err = %v, want a decode error", err)
	}

	db := openTestDB(t)
	if err := db.PutKV("bad", []byte{0xc1}); err != nil {
		t.Fatal(err)
	}
	err = NewSQLiteStore(db).Load("bad", &got)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("sqlite corrupt record err = %v, want a decode error", err)
	}
}
