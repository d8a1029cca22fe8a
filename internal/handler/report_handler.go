package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"libris/internal/service"
)

// ReportHandler handles administrative report endpoints.
type ReportHandler struct {
	reportService service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// MostBorrowed godoc
// @Summary Top books by all-time borrow count
// @Tags reports
// @Produce json
// @Param limit query int false "Number of rows" default(10)
// @Success 200 {array} repository.BookBorrowCount
// @Security BearerAuth
// @Router /reports/most-borrowed [get]
func (h *ReportHandler) MostBorrowed(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	rows, err := h.reportService.MostBorrowed(c.Request().Context(), limit)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// ActiveMembers godoc
// @Summary Top members by all-time borrow count
// @Tags reports
// @Produce json
// @Param limit query int false "Number of rows" default(10)
// @Success 200 {array} repository.MemberActivity
// @Security BearerAuth
// @Router /reports/active-members [get]
func (h *ReportHandler) ActiveMembers(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	rows, err := h.reportService.ActiveMembers(c.Request().Context(), limit)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, rows)
}

// Availability godoc
// @Summary Catalog-wide and per-genre availability summary
// @Tags reports
// @Produce json
// @Success 200 {object} service.AvailabilityReport
// @Security BearerAuth
// @Router /reports/availability [get]
func (h *ReportHandler) Availability(c echo.Context) error {
	report, err := h.reportService.Availability(c.Request().Context())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, report)
}
