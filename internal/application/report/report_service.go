package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/report"
	"github.com/storefront/backend/internal/domain/shared"
)

// Ranking size bounds
const (
	defaultTopN = 10
	maxTopN     = 100
)

// Period is a named reporting window
type Period string

const (
	PeriodToday     Period = "today"
	PeriodLast7Days Period = "7d"
	PeriodLast30    Period = "30d"
	PeriodLast90    Period = "90d"
	PeriodCustom    Period = "custom"
)

// ReportQuery contains the input for a sales report
type ReportQuery struct {
	Period     Period
	StartDate  time.Time  // custom period only
	EndDate    time.Time  // custom period only
	CategoryID *uuid.UUID // product ranking only
	TopN       int        // rankings only
}

// SalesReportService serves read-side sales aggregations for the admin
// dashboard
type SalesReportService struct {
	reportRepo report.SalesReportRepository
	logger     *zap.Logger
}

// NewSalesReportService creates a new SalesReportService
func NewSalesReportService(reportRepo report.SalesReportRepository, logger *zap.Logger) *SalesReportService {
	return &SalesReportService{
		reportRepo: reportRepo,
		logger:     logger,
	}
}

// Summary returns the aggregated sales totals for the period
func (s *SalesReportService) Summary(ctx context.Context, query ReportQuery) (*report.SalesSummary, error) {
	filter, err := s.toFilter(query)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.GetSalesSummary(ctx, filter)
}

// RevenueTrend returns revenue per day for the period
func (s *SalesReportService) RevenueTrend(ctx context.Context, query ReportQuery) ([]report.DailyRevenueTrend, error) {
	filter, err := s.toFilter(query)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.GetDailyRevenueTrend(ctx, filter)
}

// ProductRanking returns the top products by revenue for the period
func (s *SalesReportService) ProductRanking(ctx context.Context, query ReportQuery) ([]report.ProductSalesRanking, error) {
	filter, err := s.toFilter(query)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.GetProductSalesRanking(ctx, filter)
}

// RevenueByCategory returns revenue grouped by product category
func (s *SalesReportService) RevenueByCategory(ctx context.Context, query ReportQuery) ([]report.CategoryRevenue, error) {
	filter, err := s.toFilter(query)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.GetRevenueByCategory(ctx, filter)
}

// TopCustomers returns the top customers by spend for the period
func (s *SalesReportService) TopCustomers(ctx context.Context, query ReportQuery) ([]report.CustomerRanking, error) {
	filter, err := s.toFilter(query)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.GetTopCustomers(ctx, filter)
}

// toFilter resolves the named period to a concrete date range. Days
// are whole UTC days; the end bound is exclusive.
func (s *SalesReportService) toFilter(query ReportQuery) (report.SalesReportFilter, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var start, end time.Time
	switch query.Period {
	case PeriodToday:
		start, end = today, today.AddDate(0, 0, 1)
	case PeriodLast7Days, "":
		start, end = today.AddDate(0, 0, -6), today.AddDate(0, 0, 1)
	case PeriodLast30:
		start, end = today.AddDate(0, 0, -29), today.AddDate(0, 0, 1)
	case PeriodLast90:
		start, end = today.AddDate(0, 0, -89), today.AddDate(0, 0, 1)
	case PeriodCustom:
		if query.StartDate.IsZero() || query.EndDate.IsZero() {
			return report.SalesReportFilter{}, shared.NewDomainError("INVALID_PERIOD", "Custom period requires start and end dates")
		}
		if !query.EndDate.After(query.StartDate) {
			return report.SalesReportFilter{}, shared.NewDomainError("INVALID_PERIOD", "End date must be after start date")
		}
		start, end = query.StartDate, query.EndDate
	default:
		return report.SalesReportFilter{}, shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Unknown period %q", query.Period))
	}

	topN := query.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	if topN > maxTopN {
		topN = maxTopN
	}

	return report.SalesReportFilter{
		StartDate:  start,
		EndDate:    end,
		CategoryID: query.CategoryID,
		TopN:       topN,
	}, nil
}
