package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Makepad-fr/basket/internal/model"
	"github.com/Makepad-fr/basket/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// Every call reads and rewrites the whole file; fine for a personal list.

type document struct {
	NextID int64                `json:"next_id"`
	Items  []model.ShoppingItem `json:"items"`
}

type JSONStore struct {
	mu   sync.Mutex
	path string
}

var _ store.Store = (*JSONStore)(nil)

// Open returns a store backed by the file at path. The file is created on
// first write.
func Open(path string) (*JSONStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	s := &JSONStore{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) load() (document, error) {
	doc := document{NextID: 1}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("json unmarshal: %w", err)
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}
	return doc, nil
}

func (s *JSONStore) save(doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

func indexOf(items []model.ShoppingItem, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (s *JSONStore) ListAll(ctx context.Context) ([]model.ShoppingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	items := append([]model.ShoppingItem{}, doc.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items, nil
}

func (s *JSONStore) Insert(ctx context.Context, item model.ShoppingItem) (int64, error) {
	if err := store.CheckName(item.Name); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	if item.Persisted() {
		if i := indexOf(doc.Items, item.ID); i >= 0 {
			doc.Items[i] = item
		} else {
			doc.Items = append(doc.Items, item)
		}
		if item.ID >= doc.NextID {
			doc.NextID = item.ID + 1
		}
	} else {
		item.ID = doc.NextID
		doc.NextID++
		doc.Items = append(doc.Items, item)
	}
	if err := s.save(doc); err != nil {
		return 0, err
	}
	return item.ID, nil
}

func (s *JSONStore) Update(ctx context.Context, item model.ShoppingItem) error {
	if err := store.CheckName(item.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(doc.Items, item.ID)
	if i < 0 {
		return nil
	}
	doc.Items[i] = item
	return s.save(doc)
}

func (s *JSONStore) Delete(ctx context.Context, item model.ShoppingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(doc.Items, item.ID)
	if i < 0 {
		return nil
	}
	doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
	return s.save(doc)
}

func (s *JSONStore) Close() error { return nil }
