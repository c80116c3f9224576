// Package session tracks loaded sheet datasets and asynchronous report
// generation jobs.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/site-vigilance/backend/internal/models"
	"github.com/site-vigilance/backend/internal/pipeline"
	"github.com/site-vigilance/backend/internal/sheets"
	"github.com/site-vigilance/backend/internal/storage"
)

// MaxDatasets limits cached sheet loads to bound memory.
const MaxDatasets = 5

// MaxJobs limits tracked report jobs before oldest-finished eviction.
const MaxJobs = 25

// KeepAliveWindow is how long actively viewed jobs survive cleanup.
const KeepAliveWindow = 5 * time.Minute

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

type datasetState struct {
	dataset      *models.Dataset
	records      []models.InspectionRecord
	lastAccessed time.Time
}

type jobState struct {
	job          *models.ReportJob
	lastAccessed time.Time
}

// Manager owns dataset caching and report job lifecycles.
type Manager struct {
	mu       sync.RWMutex
	datasets map[string]*datasetState
	jobs     map[string]*jobState

	fetcher   *sheets.Fetcher
	pipe      *pipeline.Pipeline
	store     storage.Store
	sheetID   string
	gid       string
	retention int
	timeout   time.Duration
}

// NewManager creates a session manager bound to one configured sheet.
func NewManager(fetcher *sheets.Fetcher, pipe *pipeline.Pipeline, store storage.Store, sheetID, gid string, retention int, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Manager{
		datasets:  make(map[string]*datasetState),
		jobs:      make(map[string]*jobState),
		fetcher:   fetcher,
		pipe:      pipe,
		store:     store,
		sheetID:   sheetID,
		gid:       gid,
		retention: retention,
		timeout:   timeout,
	}
}

// LoadDataset fetches and parses the sheet, caching the result. This is the
// "Load/Refresh Data" action: it blocks until the sheet is parsed so the
// caller immediately gets counts and warnings.
func (m *Manager) LoadDataset(ctx context.Context) (*models.Dataset, error) {
	records, warnings, err := m.fetcher.Fetch(ctx, m.sheetID, m.gid)
	if err != nil {
		return nil, err
	}

	ds := &models.Dataset{
		ID:          uuid.New().String(),
		SheetID:     m.sheetID,
		GID:         m.gid,
		RecordCount: len(records),
		Warnings:    warnings,
		LoadedAt:    time.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictOldestDatasetLocked()
	m.datasets[ds.ID] = &datasetState{
		dataset:      ds,
		records:      records,
		lastAccessed: time.Now(),
	}

	fmt.Printf("[Dataset %s] Loaded %d records, %d rows skipped\n", shortID(ds.ID), len(records), len(warnings))
	return ds, nil
}

// GetDataset returns a dataset summary by ID.
func (m *Manager) GetDataset(id string) (*models.Dataset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.datasets[id]
	if !ok {
		return nil, false
	}
	return state.dataset, true
}

// DatasetRecords returns the cached records for a dataset and marks it as
// recently used.
func (m *Manager) DatasetRecords(id string) ([]models.InspectionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.datasets[id]
	if !ok {
		return nil, false
	}
	state.lastAccessed = time.Now()
	return state.records, true
}

// datasetForRun returns a dataset's records and skipped-row count in one
// locked lookup so a concurrent eviction cannot split them.
func (m *Manager) datasetForRun(id string) ([]models.InspectionRecord, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.datasets[id]
	if !ok {
		return nil, 0, false
	}
	state.lastAccessed = time.Now()
	return state.records, len(state.dataset.Warnings), true
}

// StartReport begins asynchronous report generation. When datasetID names a
// cached dataset the fetch stage is skipped; otherwise the run fetches the
// sheet itself.
func (m *Manager) StartReport(datasetID string, criteria models.FilterCriteria) (models.ReportJob, error) {
	m.mu.Lock()
	m.evictFinishedJobsLocked()

	jobID := uuid.New().String()
	job := models.NewReportJob(jobID, datasetID, criteria)
	m.jobs[jobID] = &jobState{job: job, lastAccessed: time.Now()}
	snapshot := *job
	m.mu.Unlock()

	go m.runReport(jobID, datasetID, criteria)

	return snapshot, nil
}

func (m *Manager) runReport(jobID, datasetID string, criteria models.FilterCriteria) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Report %s] PANIC recovered: %v\n", shortID(jobID), r)
			m.failJob(jobID, pipeline.StageRender, fmt.Sprintf("report generation panicked: %v", r))
		}
	}()

	start := time.Now()
	fmt.Printf("[Report %s] Starting generation\n", shortID(jobID))

	m.updateJob(jobID, func(j *models.ReportJob) {
		j.Status = models.JobStatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	progress := func(pct float64, stage string) {
		m.updateJob(jobID, func(j *models.ReportJob) {
			if pct > j.Progress {
				j.Progress = pct
			}
		})
	}

	var rendered *models.RenderedReport
	var err error

	if records, skipped, ok := m.datasetForRun(datasetID); ok {
		rendered, err = m.pipe.RunWithRecords(ctx, records, skipped, criteria, progress)
	} else {
		rendered, err = m.pipe.Run(ctx, criteria, progress)
	}

	if err != nil {
		stage := pipeline.StageFetch
		if se, ok := err.(*pipeline.StageError); ok {
			stage = se.Stage
		}
		fmt.Printf("[Report %s] ERROR at %s stage: %v\n", shortID(jobID), stage, err)
		m.failJob(jobID, stage, err.Error())
		return
	}

	info, err := m.store.SaveReport(rendered.Filename, rendered.PDF, rendered.RecordCount)
	if err != nil {
		fmt.Printf("[Report %s] ERROR storing report: %v\n", shortID(jobID), err)
		m.failJob(jobID, "store", err.Error())
		return
	}

	if m.retention > 0 {
		if pruned, err := m.store.Prune(m.retention); err != nil {
			fmt.Printf("[Report %s] Warning: prune failed: %v\n", shortID(jobID), err)
		} else if pruned > 0 {
			fmt.Printf("[Report %s] Pruned %d old reports\n", shortID(jobID), pruned)
		}
	}

	elapsed := time.Since(start).Milliseconds()
	fmt.Printf("[Report %s] Complete: %d records, %d bytes, %dms\n",
		shortID(jobID), rendered.RecordCount, len(rendered.PDF), elapsed)

	m.updateJob(jobID, func(j *models.ReportJob) {
		j.Status = models.JobStatusComplete
		j.Progress = 100
		j.ReportID = info.ID
		j.Filename = rendered.Filename
		j.RecordCount = rendered.RecordCount
		j.SkippedRows = rendered.SkippedRows
		j.ProcessingTimeMs = elapsed
	})
}

func (m *Manager) updateJob(id string, fn func(*models.ReportJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.jobs[id]; ok {
		fn(state.job)
	}
}

func (m *Manager) failJob(id, stage, reason string) {
	m.updateJob(id, func(j *models.ReportJob) {
		j.Status = models.JobStatusError
		j.Stage = stage
		j.Error = reason
	})
}

// GetJob returns a snapshot of a report job.
func (m *Manager) GetJob(id string) (models.ReportJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.jobs[id]
	if !ok {
		return models.ReportJob{}, false
	}
	return *state.job, true
}

// TouchJob marks a job as actively viewed so cleanup keeps it around.
func (m *Manager) TouchJob(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[id]
	if !ok {
		return false
	}
	state.lastAccessed = time.Now()
	return true
}

// CleanupOld removes finished jobs and idle datasets older than maxAge,
// keeping anything accessed within KeepAliveWindow.
func (m *Manager) CleanupOld(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAlive := time.Now().Add(-KeepAliveWindow)

	for id, state := range m.jobs {
		if state.job.Status != models.JobStatusComplete && state.job.Status != models.JobStatusError {
			continue
		}
		if state.lastAccessed.After(keepAlive) || state.lastAccessed.After(cutoff) {
			continue
		}
		delete(m.jobs, id)
		fmt.Printf("[Manager] Cleaned up aged job %s\n", shortID(id))
	}

	for id, state := range m.datasets {
		if state.lastAccessed.After(keepAlive) || state.lastAccessed.After(cutoff) {
			continue
		}
		delete(m.datasets, id)
		fmt.Printf("[Manager] Cleaned up aged dataset %s\n", shortID(id))
	}
}

// evictOldestDatasetLocked drops the least recently used dataset when the
// cache is full. Caller holds the lock.
func (m *Manager) evictOldestDatasetLocked() {
	if len(m.datasets) < MaxDatasets {
		return
	}
	oldestID := ""
	var oldest time.Time
	for id, state := range m.datasets {
		if oldestID == "" || state.lastAccessed.Before(oldest) {
			oldestID = id
			oldest = state.lastAccessed
		}
	}
	if oldestID != "" {
		delete(m.datasets, oldestID)
		fmt.Printf("[Manager] Evicted dataset %s to free memory\n", shortID(oldestID))
	}
}

// evictFinishedJobsLocked drops oldest finished jobs when at capacity.
// Caller holds the lock.
func (m *Manager) evictFinishedJobsLocked() {
	if len(m.jobs) < MaxJobs {
		return
	}
	toFree := len(m.jobs) - MaxJobs + 1
	for id, state := range m.jobs {
		if toFree == 0 {
			break
		}
		if state.job.Status == models.JobStatusComplete || state.job.Status == models.JobStatusError {
			delete(m.jobs, id)
			toFree--
			fmt.Printf("[Manager] Cleaned up old job %s to free memory\n", shortID(id))
		}
	}
}
