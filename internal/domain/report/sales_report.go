package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesSummary provides aggregated sales statistics
// This is a CQRS read model optimized for querying
type SalesSummary struct {
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
	TotalOrders   int64           `json:"total_orders"`
	TotalUnits    int64           `json:"total_units"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// DailyRevenueTrend represents revenue per day over a period
type DailyRevenueTrend struct {
	Date        time.Time       `json:"date"`
	OrderCount  int64           `json:"order_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	UnitsSold   int64           `json:"units_sold"`
}

// ProductSalesRanking represents product sales ranking
type ProductSalesRanking struct {
	Rank        int             `json:"rank"`
	ProductID   uuid.UUID       `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	TotalUnits  int64           `json:"total_units"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderCount  int64           `json:"order_count"`
}

// CategoryRevenue represents revenue grouped by category
type CategoryRevenue struct {
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name"`
	TotalUnits   int64           `json:"total_units"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// CustomerRanking represents top customers by spend
type CustomerRanking struct {
	Rank         int             `json:"rank"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Email        string          `json:"email"`
	TotalOrders  int64           `json:"total_orders"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// SalesReportFilter defines filtering options for sales reports
type SalesReportFilter struct {
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	TopN       int        `json:"top_n,omitempty"` // For rankings
}

// SalesReportRepository defines the interface for sales report queries.
// All aggregations cover paid, shipped and delivered orders only.
type SalesReportRepository interface {
	// GetSalesSummary returns aggregated sales summary for the period
	GetSalesSummary(ctx context.Context, filter SalesReportFilter) (*SalesSummary, error)

	// GetDailyRevenueTrend returns revenue per day for the period
	GetDailyRevenueTrend(ctx context.Context, filter SalesReportFilter) ([]DailyRevenueTrend, error)

	// GetProductSalesRanking returns top N products by revenue
	GetProductSalesRanking(ctx context.Context, filter SalesReportFilter) ([]ProductSalesRanking, error)

	// GetRevenueByCategory returns revenue grouped by product category
	GetRevenueByCategory(ctx context.Context, filter SalesReportFilter) ([]CategoryRevenue, error)

	// GetTopCustomers returns top N customers by spend
	GetTopCustomers(ctx context.Context, filter SalesReportFilter) ([]CustomerRanking, error)
}
