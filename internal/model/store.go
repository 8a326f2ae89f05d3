// Package model owns the train -> validate -> persist -> load cycle of
// the per-product forecasting models.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/optiflow/backend/internal/domain"
	"github.com/optiflow/backend/internal/forecaster"
)

// Store persists trained model artifacts keyed by product id. Exactly
// one current artifact exists per product: Put overwrites any prior
// version, retraining never versions in place.
type Store interface {
	Get(ctx context.Context, productID int64) (*forecaster.SeasonalTrend, error)
	Put(ctx context.Context, productID int64, m *forecaster.SeasonalTrend) error
	ProductIDs(ctx context.Context) ([]int64, error)
}

// fsStore keeps one JSON artifact per product under a models directory.
type fsStore struct {
	dir string
}

// NewFSStore returns a filesystem-backed model store rooted at dir.
func NewFSStore(dir string) Store {
	return &fsStore{dir: dir}
}

func (s *fsStore) path(productID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("model_product_%d.json", productID))
}

func (s *fsStore) Get(ctx context.Context, productID int64) (*forecaster.SeasonalTrend, error) {
	payload, err := os.ReadFile(s.path(productID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: product %d", domain.ErrModelNotFound, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var m forecaster.SeasonalTrend
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact for product %d: %w", productID, err)
	}
	return &m, nil
}

func (s *fsStore) Put(ctx context.Context, productID int64, m *forecaster.SeasonalTrend) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: create models dir: %v", domain.ErrPersistence, err)
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode model artifact for product %d: %w", productID, err)
	}

	// Write-then-rename so a crash mid-write never corrupts the
	// current artifact.
	tmp := s.path(productID) + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return fmt.Errorf("%w: write model artifact: %v", domain.ErrPersistence, err)
	}
	if err := os.Rename(tmp, s.path(productID)); err != nil {
		return fmt.Errorf("%w: replace model artifact: %v", domain.ErrPersistence, err)
	}
	return nil
}

func (s *fsStore) ProductIDs(ctx context.Context) ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list models dir: %w", err)
	}

	var ids []int64
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "model_product_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(name, "model_product_"), ".json")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// memoryStore holds artifacts in a map, for tests and ephemeral runs.
type memoryStore struct {
	mu     sync.Mutex
	models map[int64]*forecaster.SeasonalTrend
}

// NewMemoryStore returns an in-memory model store.
func NewMemoryStore() Store {
	return &memoryStore{models: make(map[int64]*forecaster.SeasonalTrend)}
}

func (s *memoryStore) Get(ctx context.Context, productID int64) (*forecaster.SeasonalTrend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[productID]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", domain.ErrModelNotFound, productID)
	}
	return m, nil
}

func (s *memoryStore) Put(ctx context.Context, productID int64, m *forecaster.SeasonalTrend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[productID] = m
	return nil
}

func (s *memoryStore) ProductIDs(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.models))
	for id := range s.models {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
