// handlers_report.go - Report generation handlers
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/site-vigilance/backend/internal/models"
	"github.com/site-vigilance/backend/internal/storage"
)

// ReportHandlerImpl implements the ReportHandler interface
type ReportHandlerImpl struct {
	sessions SessionManager
	store    storage.Store
}

// NewReportHandler creates a new report handler instance
func NewReportHandler(sessions SessionManager, store storage.Store) ReportHandler {
	return &ReportHandlerImpl{sessions: sessions, store: store}
}

// startReportRequest is the report generation request body.
type startReportRequest struct {
	DatasetID string `json:"datasetId,omitempty"`
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"endDate,omitempty"`   // YYYY-MM-DD
	Shift     string `json:"shift,omitempty"`
	Site      string `json:"site,omitempty"`
}

func (r startReportRequest) criteria() (models.FilterCriteria, error) {
	criteria := models.FilterCriteria{Shift: r.Shift, Site: r.Site}

	parse := func(name, v string) (*time.Time, error) {
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, NewBadRequestError(fmt.Sprintf("invalid %s, want YYYY-MM-DD", name), err)
		}
		return &t, nil
	}

	var err error
	if criteria.StartDate, err = parse("startDate", r.StartDate); err != nil {
		return criteria, err
	}
	if criteria.EndDate, err = parse("endDate", r.EndDate); err != nil {
		return criteria, err
	}
	if criteria.StartDate != nil && criteria.EndDate != nil && criteria.EndDate.Before(*criteria.StartDate) {
		return criteria, NewBadRequestError("endDate is before startDate", nil)
	}
	return criteria, nil
}

// HandleStartReport starts an asynchronous report generation job
func (h *ReportHandlerImpl) HandleStartReport(c echo.Context) error {
	var req startReportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	criteria, err := req.criteria()
	if err != nil {
		return err
	}

	job, err := h.sessions.StartReport(req.DatasetID, criteria)
	if err != nil {
		return NewInternalError("failed to start report job", err)
	}

	return c.JSON(http.StatusAccepted, job)
}

// HandleReportStatus returns the current status of a report job
func (h *ReportHandlerImpl) HandleReportStatus(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	job, ok := h.sessions.GetJob(id)
	if !ok {
		return NewNotFoundError("report job", id)
	}

	// Touch the job to prevent cleanup while being polled
	h.sessions.TouchJob(id)

	return c.JSON(http.StatusOK, job)
}

// HandleReportProgressStream streams job progress via SSE until the job
// finishes or the watch times out.
func (h *ReportHandlerImpl) HandleReportProgressStream(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	job, ok := h.sessions.GetJob(id)
	if !ok {
		h.sendSSEError(c, "report job not found")
		return nil
	}
	h.sendSSEData(c, job)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(10 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-timeout.C:
			h.sendSSEError(c, "progress stream timed out")
			return nil
		case <-ticker.C:
			job, ok := h.sessions.GetJob(id)
			if !ok {
				h.sendSSEError(c, "report job not found")
				return nil
			}
			h.sessions.TouchJob(id)
			h.sendSSEData(c, job)

			if job.Status == models.JobStatusComplete || job.Status == models.JobStatusError {
				return nil
			}
		}
	}
}

func (h *ReportHandlerImpl) sendSSEData(c echo.Context, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Response(), "data: %s\n\n", data)
	c.Response().Flush()
}

func (h *ReportHandlerImpl) sendSSEError(c echo.Context, msg string) {
	fmt.Fprintf(c.Response(), "event: error\ndata: %q\n\n", msg)
	c.Response().Flush()
}

// HandleDownloadReport streams a stored report PDF as an attachment
func (h *ReportHandlerImpl) HandleDownloadReport(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}

	job, ok := h.sessions.GetJob(id)
	if !ok {
		return NewNotFoundError("report job", id)
	}
	if job.Status != models.JobStatusComplete {
		return NewBadRequestError(fmt.Sprintf("report job is %s, not complete", job.Status), nil)
	}

	data, err := h.store.Read(job.ReportID)
	if err != nil {
		return NewNotFoundError("report file", job.ReportID)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, job.Filename))
	return c.Blob(http.StatusOK, "application/pdf", data)
}

// HandleRecentReports lists stored reports newest-first
func (h *ReportHandlerImpl) HandleRecentReports(c echo.Context) error {
	list, err := h.store.List(20)
	if err != nil {
		return NewInternalError("failed to list reports", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleDeleteReport removes a stored report file
func (h *ReportHandlerImpl) HandleDeleteReport(c echo.Context) error {
	id := c.Param("reportId")
	if id == "" {
		return NewValidationError("reportId")
	}

	if err := h.store.Delete(id); err != nil {
		return NewNotFoundError("report", id)
	}
	return c.NoContent(http.StatusNoContent)
}
