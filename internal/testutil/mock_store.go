// mock_store.go - In-memory storage.Store implementation for testing
package testutil

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/site-vigilance/backend/internal/models"
)

// MockStore implements storage.Store entirely in memory.
type MockStore struct {
	mu      sync.RWMutex
	reports map[string]*models.ReportInfo
	data    map[string][]byte

	// SaveErr forces SaveReport to fail when set.
	SaveErr error
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		reports: make(map[string]*models.ReportInfo),
		data:    make(map[string][]byte),
	}
}

func (m *MockStore) SaveReport(filename string, data []byte, recordCount int) (*models.ReportInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	info := &models.ReportInfo{
		ID:          id,
		Filename:    filename,
		Size:        int64(len(data)),
		RecordCount: recordCount,
		GeneratedAt: time.Now(),
	}
	m.reports[id] = info
	m.data[id] = data
	return info, nil
}

func (m *MockStore) Get(id string) (*models.ReportInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.reports[id]
	if !ok {
		return nil, fmt.Errorf("report not found: %s", id)
	}
	return info, nil
}

func (m *MockStore) Read(id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("report not found: %s", id)
	}
	return data, nil
}

func (m *MockStore) List(limit int) ([]*models.ReportInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.ReportInfo, 0, len(m.reports))
	for _, info := range m.reports {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].GeneratedAt.After(list[j].GeneratedAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reports[id]; !ok {
		return fmt.Errorf("report not found: %s", id)
	}
	delete(m.reports, id)
	delete(m.data, id)
	return nil
}

func (m *MockStore) Prune(keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if keep <= 0 || len(m.reports) <= keep {
		return 0, nil
	}

	list := make([]*models.ReportInfo, 0, len(m.reports))
	for _, info := range m.reports {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].GeneratedAt.After(list[j].GeneratedAt)
	})

	deleted := 0
	for _, info := range list[keep:] {
		delete(m.reports, info.ID)
		delete(m.data, info.ID)
		deleted++
	}
	return deleted, nil
}
