// handlers.go - Handler aggregate wiring the per-concern implementations
package api

import "github.com/site-vigilance/backend/internal/storage"

// Handler aggregates all API handlers behind one constructor for main.
type Handler struct {
	Data   DataHandler
	Report ReportHandler
	Health HealthHandler
}

// NewHandler creates the full handler set.
func NewHandler(sessions SessionManager, store storage.Store, version string) *Handler {
	return &Handler{
		Data:   NewDataHandler(sessions),
		Report: NewReportHandler(sessions, store),
		Health: NewHealthHandler(version),
	}
}
