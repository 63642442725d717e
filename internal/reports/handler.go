package reports

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/auth"
	"fieldverify/verification-portal-backend/internal/reports/export"
	"fieldverify/verification-portal-backend/internal/tasks"
)

// Handler handles HTTP requests for report views and exports
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new reports handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers report routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.GET("/records", h.records)
		reports.GET("/records/export", h.exportRecords)
		reports.GET("/previous-records-summary", h.previousRecordsSummary)
		reports.GET("/city-records-summary", h.citySummary)
		reports.GET("/monthly-report", h.monthlyReport)
		reports.GET("/month-report", h.monthReport)
		reports.GET("/summary", h.summary)
	}
}

func (h *Handler) records(c *gin.Context) {
	filter, ok := h.filter(c)
	if !ok {
		return
	}

	rows, err := h.service.GenerateReport(c.Request.Context(), auth.PrincipalFrom(c), filter)
	if err != nil {
		h.respondError(c, "failed to generate report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": rows})
}

func (h *Handler) exportRecords(c *gin.Context) {
	filter, ok := h.filter(c)
	if !ok {
		return
	}

	rows, err := h.service.GenerateReport(c.Request.Context(), auth.PrincipalFrom(c), filter)
	if err != nil {
		h.respondError(c, "failed to generate report", err)
		return
	}

	header := Headers()
	grid := make([][]string, 0, len(rows))
	for _, row := range rows {
		grid = append(grid, row.Values())
	}

	var buf bytes.Buffer
	var contentType, filename string
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		err = export.NewCSVExporter(export.DefaultCSVOptions()).Export(&buf, header, grid)
		contentType, filename = "text/csv", "verification-report.csv"
	case "excel":
		err = export.NewExcelExporter(export.DefaultExcelOptions()).Export(&buf, header, grid)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "verification-report.xlsx"
	case "pdf":
		err = export.NewPDFGenerator(export.DefaultPDFOptions()).Export(&buf, header, grid)
		contentType, filename = "application/pdf", "verification-report.pdf"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown export format"})
		return
	}
	if err != nil {
		h.respondError(c, "failed to export report", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handler) previousRecordsSummary(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	records, err := h.service.PreviousRecordsSummary(c.Request.Context(), auth.PrincipalFrom(c), limit)
	if err != nil {
		h.respondError(c, "failed to build summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *Handler) citySummary(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	summaries, err := h.service.CityBasedSummary(c.Request.Context(), auth.PrincipalFrom(c), limit)
	if err != nil {
		h.respondError(c, "failed to build city summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cities": summaries})
}

func (h *Handler) monthlyReport(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))

	series, err := h.service.MonthlyReport(c.Request.Context(), auth.PrincipalFrom(c), year)
	if err != nil {
		h.respondError(c, "failed to build monthly report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": series})
}

func (h *Handler) monthReport(c *gin.Context) {
	month, _ := strconv.Atoi(c.Query("month"))
	year, _ := strconv.Atoi(c.Query("year"))

	counts, err := h.service.MonthReport(c.Request.Context(), auth.PrincipalFrom(c), month, year)
	if err != nil {
		h.respondError(c, "failed to build month report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": counts})
}

func (h *Handler) summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), auth.PrincipalFrom(c))
	if err != nil {
		h.respondError(c, "failed to build summary", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) filter(c *gin.Context) (Filter, bool) {
	var filter Filter
	if raw := c.Query("priority"); raw != "" {
		priority, err := tasks.ParsePriority(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority"})
			return filter, false
		}
		filter.Priority = &priority
	}
	if raw := c.Query("status"); raw != "" {
		status, err := tasks.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return filter, false
		}
		filter.Status = &status
	}
	if raw := c.Query("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
			return filter, false
		}
		filter.DueAfter = &start
	}
	if raw := c.Query("end"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
			return filter, false
		}
		filter.DueBefore = &end
	}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("pageSize"))
	return filter, true
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	status := apperrors.StatusCode(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
