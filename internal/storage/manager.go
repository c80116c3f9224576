// Package storage persists generated report files on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/site-vigilance/backend/internal/models"
)

// Store defines the interface for report file storage.
type Store interface {
	SaveReport(filename string, data []byte, recordCount int) (*models.ReportInfo, error)
	Get(id string) (*models.ReportInfo, error)
	Read(id string) ([]byte, error)
	List(limit int) ([]*models.ReportInfo, error)
	Delete(id string) error
	Prune(keep int) (int, error)
}

// LocalStore implements Store using the local filesystem. Reports are
// per-run artifacts; metadata lives in memory and the files are pruned by
// retention, so no startup rescan is needed.
type LocalStore struct {
	mu        sync.RWMutex
	reportDir string
	reports   map[string]*models.ReportInfo
}

// NewLocalStore creates a LocalStore rooted at reportDir.
func NewLocalStore(reportDir string) (*LocalStore, error) {
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}
	return &LocalStore{
		reportDir: reportDir,
		reports:   make(map[string]*models.ReportInfo),
	}, nil
}

// SaveReport writes a rendered PDF to disk and records its metadata.
func (s *LocalStore) SaveReport(filename string, data []byte, recordCount int) (*models.ReportInfo, error) {
	id := uuid.New().String()
	path := filepath.Join(s.reportDir, id+".pdf")

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing report file: %w", err)
	}

	info := &models.ReportInfo{
		ID:          id,
		Filename:    filename,
		Size:        int64(len(data)),
		RecordCount: recordCount,
		GeneratedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[id] = info

	return info, nil
}

// Get retrieves report metadata by ID.
func (s *LocalStore) Get(id string) (*models.ReportInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("report not found: %s", id)
	}
	return info, nil
}

// Read returns the stored PDF bytes for a report.
func (s *LocalStore) Read(id string) ([]byte, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.reportDir, id+".pdf"))
	if err != nil {
		return nil, fmt.Errorf("reading report file: %w", err)
	}
	return data, nil
}

// List returns the most recent reports, newest first.
func (s *LocalStore) List(limit int) ([]*models.ReportInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.ReportInfo, 0, len(s.reports))
	for _, info := range s.reports {
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

// Delete removes a report and its file.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return fmt.Errorf("report not found: %s", id)
	}
	delete(s.reports, id)

	if err := os.Remove(filepath.Join(s.reportDir, id+".pdf")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing report file: %w", err)
	}
	return nil
}

// Prune removes the oldest reports beyond the retention count and returns
// how many were deleted.
func (s *LocalStore) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.reports) <= keep {
		return 0, nil
	}

	list := make([]*models.ReportInfo, 0, len(s.reports))
	for _, info := range s.reports {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].GeneratedAt.After(list[j].GeneratedAt)
	})

	deleted := 0
	for _, info := range list[keep:] {
		delete(s.reports, info.ID)
		if err := os.Remove(filepath.Join(s.reportDir, info.ID+".pdf")); err != nil && !os.IsNotExist(err) {
			return deleted, fmt.Errorf("removing report file: %w", err)
		}
		deleted++
	}
	return deleted, nil
}
