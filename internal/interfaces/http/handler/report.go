package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	reportapp "github.com/storefront/backend/internal/application/report"
)

// mustParseDate parses a date already validated by request binding
func mustParseDate(raw string) time.Time {
	t, _ := time.Parse("2006-01-02", raw)
	return t
}

// ReportHandler handles admin sales report endpoints
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.SalesReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.SalesReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// ReportQueryRequest represents the common report query parameters.
// Custom periods take start_date and end_date as YYYY-MM-DD.
type ReportQueryRequest struct {
	Period     string `form:"period" binding:"omitempty,oneof=today 7d 30d 90d custom"`
	StartDate  string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate    string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	TopN       int    `form:"top_n" binding:"omitempty,min=1"`
}

func (h *ReportHandler) bindQuery(c *gin.Context) (reportapp.ReportQuery, bool) {
	var req ReportQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return reportapp.ReportQuery{}, false
	}

	query := reportapp.ReportQuery{
		Period: reportapp.Period(req.Period),
		TopN:   req.TopN,
	}
	if req.CategoryID != "" {
		query.CategoryID = parseOptionalUUID(&req.CategoryID)
	}
	if req.StartDate != "" {
		query.StartDate = mustParseDate(req.StartDate)
	}
	if req.EndDate != "" {
		query.EndDate = mustParseDate(req.EndDate)
	}
	return query, true
}

// Summary returns aggregate sales figures for the period
func (h *ReportHandler) Summary(c *gin.Context) {
	query, ok := h.bindQuery(c)
	if !ok {
		return
	}

	result, err := h.reportService.Summary(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RevenueTrend returns per-day revenue for the period
func (h *ReportHandler) RevenueTrend(c *gin.Context) {
	query, ok := h.bindQuery(c)
	if !ok {
		return
	}

	result, err := h.reportService.RevenueTrend(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ProductRanking returns top products by revenue
func (h *ReportHandler) ProductRanking(c *gin.Context) {
	query, ok := h.bindQuery(c)
	if !ok {
		return
	}

	result, err := h.reportService.ProductRanking(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RevenueByCategory returns revenue grouped by category
func (h *ReportHandler) RevenueByCategory(c *gin.Context) {
	query, ok := h.bindQuery(c)
	if !ok {
		return
	}

	result, err := h.reportService.RevenueByCategory(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// TopCustomers returns top customers by spend
func (h *ReportHandler) TopCustomers(c *gin.Context) {
	query, ok := h.bindQuery(c)
	if !ok {
		return
	}

	result, err := h.reportService.TopCustomers(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers admin report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/summary", h.Summary)
		reports.GET("/revenue-trend", h.RevenueTrend)
		reports.GET("/top-products", h.ProductRanking)
		reports.GET("/revenue-by-category", h.RevenueByCategory)
		reports.GET("/top-customers", h.TopCustomers)
	}
}
