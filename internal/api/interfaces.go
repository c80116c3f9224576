// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/site-vigilance/backend/internal/models"
)

// DataHandler handles dataset load and preview operations
type DataHandler interface {
	HandleLoadDataset(c echo.Context) error
	HandleGetDataset(c echo.Context) error
	HandleGetRecords(c echo.Context) error
	HandleGetRecordsMsgpack(c echo.Context) error
	HandleGetSites(c echo.Context) error
	HandleGetShifts(c echo.Context) error
}

// ReportHandler handles report generation operations
type ReportHandler interface {
	HandleStartReport(c echo.Context) error
	HandleReportStatus(c echo.Context) error
	HandleReportProgressStream(c echo.Context) error
	HandleDownloadReport(c echo.Context) error
	HandleRecentReports(c echo.Context) error
	HandleDeleteReport(c echo.Context) error
}

// HealthHandler handles health checks
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager is the session surface the handlers depend on.
type SessionManager interface {
	LoadDataset(ctx context.Context) (*models.Dataset, error)
	GetDataset(id string) (*models.Dataset, bool)
	DatasetRecords(id string) ([]models.InspectionRecord, bool)
	StartReport(datasetID string, criteria models.FilterCriteria) (models.ReportJob, error)
	GetJob(id string) (models.ReportJob, bool)
	TouchJob(id string) bool
}
