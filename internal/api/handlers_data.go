// handlers_data.go - Dataset load and preview handlers
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/site-vigilance/backend/internal/filter"
	"github.com/site-vigilance/backend/internal/models"
	"github.com/site-vigilance/backend/internal/sheets"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// DataHandlerImpl implements the DataHandler interface
type DataHandlerImpl struct {
	sessions SessionManager
}

// NewDataHandler creates a new data handler instance
func NewDataHandler(sessions SessionManager) DataHandler {
	return &DataHandlerImpl{sessions: sessions}
}

// HandleLoadDataset fetches and parses the configured sheet into a cached
// dataset. This is the "Load/Refresh Data" action.
func (h *DataHandlerImpl) HandleLoadDataset(c echo.Context) error {
	ds, err := h.sessions.LoadDataset(c.Request().Context())
	if err != nil {
		return NewPipelineError(err)
	}
	return c.JSON(http.StatusCreated, ds)
}

// HandleGetDataset returns a dataset summary (counts, skipped-row warnings)
func (h *DataHandlerImpl) HandleGetDataset(c echo.Context) error {
	id := c.Param("datasetId")
	if id == "" {
		return NewValidationError("datasetId")
	}

	ds, ok := h.sessions.GetDataset(id)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	return c.JSON(http.StatusOK, ds)
}

// recordsPage is the preview response envelope.
type recordsPage struct {
	Records  []models.InspectionRecord `json:"records" msgpack:"records"`
	Total    int                       `json:"total" msgpack:"total"`
	Page     int                       `json:"page" msgpack:"page"`
	PageSize int                       `json:"pageSize" msgpack:"pageSize"`
}

// HandleGetRecords returns a filtered, paginated preview of a dataset
func (h *DataHandlerImpl) HandleGetRecords(c echo.Context) error {
	page, err := h.recordsForRequest(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// HandleGetRecordsMsgpack returns the same preview rows msgpack-encoded,
// the compact transport the frontend uses for large datasets.
func (h *DataHandlerImpl) HandleGetRecordsMsgpack(c echo.Context) error {
	page, err := h.recordsForRequest(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(page)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *DataHandlerImpl) recordsForRequest(c echo.Context) (*recordsPage, error) {
	id := c.Param("datasetId")
	if id == "" {
		return nil, NewValidationError("datasetId")
	}

	records, ok := h.sessions.DatasetRecords(id)
	if !ok {
		return nil, NewNotFoundError("dataset", id)
	}

	criteria, err := criteriaFromQuery(c)
	if err != nil {
		return nil, err
	}
	matched := filter.Apply(records, criteria)

	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize := defaultPageSize
	if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 {
		pageSize = ps
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	return &recordsPage{
		Records:  matched[start:end],
		Total:    len(matched),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// HandleGetSites returns the dataset's unique site names for the UI dropdown
func (h *DataHandlerImpl) HandleGetSites(c echo.Context) error {
	return h.uniqueValues(c, sheets.UniqueSites)
}

// HandleGetShifts returns the dataset's unique shifts for the UI dropdown
func (h *DataHandlerImpl) HandleGetShifts(c echo.Context) error {
	return h.uniqueValues(c, sheets.UniqueShifts)
}

func (h *DataHandlerImpl) uniqueValues(c echo.Context, get func([]models.InspectionRecord) []string) error {
	id := c.Param("datasetId")
	if id == "" {
		return NewValidationError("datasetId")
	}

	records, ok := h.sessions.DatasetRecords(id)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	return c.JSON(http.StatusOK, get(records))
}

// criteriaFromQuery parses filter criteria from start/end/shift/site query
// parameters. Dates are YYYY-MM-DD; absent bounds stay unbounded.
func criteriaFromQuery(c echo.Context) (models.FilterCriteria, error) {
	criteria := models.FilterCriteria{
		Shift: c.QueryParam("shift"),
		Site:  c.QueryParam("site"),
	}

	parse := func(name string) (*time.Time, error) {
		v := c.QueryParam(name)
		if v == "" {
			return nil, nil
		}
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, NewBadRequestError(fmt.Sprintf("invalid %s date, want YYYY-MM-DD", name), err)
		}
		return &t, nil
	}

	var err error
	if criteria.StartDate, err = parse("start"); err != nil {
		return criteria, err
	}
	if criteria.EndDate, err = parse("end"); err != nil {
		return criteria, err
	}
	return criteria, nil
}
