package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/report"
)

// revenueStatuses are the order states that count as realized revenue
var revenueStatuses = []string{"paid", "shipped", "delivered"}

// GormSalesReportRepository implements SalesReportRepository using GORM
type GormSalesReportRepository struct {
	db *gorm.DB
}

// NewGormSalesReportRepository creates a new GormSalesReportRepository
func NewGormSalesReportRepository(db *gorm.DB) *GormSalesReportRepository {
	return &GormSalesReportRepository{db: db}
}

// GetSalesSummary returns aggregated sales summary for the period.
// Orders and items are aggregated separately so the item join cannot
// duplicate order totals.
func (r *GormSalesReportRepository) GetSalesSummary(ctx context.Context, filter report.SalesReportFilter) (*report.SalesSummary, error) {
	type orderResult struct {
		TotalOrders  int64
		TotalRevenue decimal.Decimal
	}

	var orders orderResult
	if err := r.db.WithContext(ctx).Table("orders o").
		Select(`
			COUNT(o.id) as total_orders,
			COALESCE(SUM(o.total_amount), 0) as total_revenue
		`).
		Where("o.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", revenueStatuses).
		Scan(&orders).Error; err != nil {
		return nil, err
	}

	var totalUnits int64
	unitsQuery := r.db.WithContext(ctx).Table("order_items oi").
		Select("COALESCE(SUM(oi.quantity), 0)").
		Joins("INNER JOIN orders o ON o.id = oi.order_id").
		Where("o.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", revenueStatuses)

	if filter.CategoryID != nil {
		unitsQuery = unitsQuery.Joins("LEFT JOIN products p ON p.id = oi.product_id").
			Where("p.category_id = ?", *filter.CategoryID)
	}

	if err := unitsQuery.Scan(&totalUnits).Error; err != nil {
		return nil, err
	}

	avgOrderValue := decimal.Zero
	if orders.TotalOrders > 0 {
		avgOrderValue = orders.TotalRevenue.Div(decimal.NewFromInt(orders.TotalOrders)).Round(2)
	}

	return &report.SalesSummary{
		PeriodStart:   filter.StartDate,
		PeriodEnd:     filter.EndDate,
		TotalOrders:   orders.TotalOrders,
		TotalUnits:    totalUnits,
		TotalRevenue:  orders.TotalRevenue,
		AvgOrderValue: avgOrderValue,
	}, nil
}

// GetDailyRevenueTrend returns revenue per day for the period
func (r *GormSalesReportRepository) GetDailyRevenueTrend(ctx context.Context, filter report.SalesReportFilter) ([]report.DailyRevenueTrend, error) {
	var trends []report.DailyRevenueTrend

	err := r.db.WithContext(ctx).Table("orders o").
		Select(`
			DATE(o.created_at) as date,
			COUNT(o.id) as order_count,
			COALESCE(SUM(o.total_amount), 0) as total_amount
		`).
		Where("o.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", revenueStatuses).
		Group("DATE(o.created_at)").
		Order("date ASC").
		Scan(&trends).Error
	if err != nil {
		return nil, err
	}

	type unitsResult struct {
		Date      time.Time
		UnitsSold int64
	}

	var units []unitsResult
	err = r.db.WithContext(ctx).Table("order_items oi").
		Select(`
			DATE(o.created_at) as date,
			COALESCE(SUM(oi.quantity), 0) as units_sold
		`).
		Joins("INNER JOIN orders o ON o.id = oi.order_id").
		Where("o.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", revenueStatuses).
		Group("DATE(o.created_at)").
		Scan(&units).Error
	if err != nil {
		return nil, err
	}

	unitsByDay := make(map[string]int64, len(units))
	for _, u := range units {
		unitsByDay[u.Date.Format("2006-01-02")] = u.UnitsSold
	}
	for i := range trends {
		trends[i].UnitsSold = unitsByDay[trends[i].Date.Format("2006-01-02")]
	}

	return trends, nil
}

// GetProductSalesRanking returns top N products by revenue
func (r *GormSalesReportRepository) GetProductSalesRanking(ctx context.Context, filter report.SalesReportFilter) ([]report.ProductSalesRanking, error) {
	type rankingResult struct {
		ProductID   uuid.UUID
		SKU         string
		ProductName string
		TotalUnits  int64
		TotalAmount decimal.Decimal
		OrderCount  int64
	}

	topN := filter.TopN
	if topN <= 0 {
		topN = 10
	}

	var results []rankingResult

	query := r.db.WithContext(ctx).Table("order_items oi").
		Select(`
			oi.product_id as product_id,
			oi.sku as sku,
			oi.product_name as product_name,
			SUM(oi.quantity) as total_units,
			SUM(oi.amount) as total_amount,
			COUNT(DISTINCT oi.order_id) as order_count
		`).
		Joins("INNER JOIN orders o ON o.id = oi.order_id").
		Where("o.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", revenueStatuses)

	if filter.CategoryID != nil {
		query = query.Joins("LEFT JOIN products p ON p.id = oi.product_id").
			Where("p.category_id = ?", *filter.CategoryID)
	}

	err := query.
		Group("oi.product_id, oi.sku, oi.product_name").
		Order("total_amount DESC").
		Limit(topN).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	rankings := make([]report.ProductSalesRanking, len(results))
	for i, res := range results {
		rankings[i] = report.ProductSalesRanking{
			Rank:        i + 1,
			ProductID:   res.ProductID,
			SKU:         res.SKU,
			ProductName: res.ProductName,
			TotalUnits:  res.TotalUnits,
			TotalAmount: res.TotalAmount,
			OrderCount:  res.OrderCount,
		}
	}
	return rankings, nil
}

// GetRevenueByCategory returns revenue grouped by product category
func (r *GormSalesReportRepository) GetRevenueByCategory(ctx context.Context, filter report.SalesReportFilter) ([]report.CategoryRevenue, error) {
	var results []report.CategoryRevenue

	err := r.db.WithContext(ctx).Table("order_items oi").
		Select(`
			p.category_id as category_id,
			COALESCE(c.name, 'Uncategorized') as category_name,
			SUM(oi.quantity) as total_units,
			SUM(oi.amount) as total_amount
		`).
		Joins("INNER JOIN orders o ON o.id = oi.order_id").
		Joins("LEFT JOIN products p ON p.id = oi.product_id").
		Joins("LEFT JOIN categories c ON c.id = p.category_id").
		Where("o.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", revenueStatuses).
		Group("p.category_id, c.name").
		Order("total_amount DESC").
		Scan(&results).Error

	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetTopCustomers returns top N customers by spend
func (r *GormSalesReportRepository) GetTopCustomers(ctx context.Context, filter report.SalesReportFilter) ([]report.CustomerRanking, error) {
	type customerResult struct {
		CustomerID  uuid.UUID
		FirstName   string
		LastName    string
		Email       string
		TotalOrders int64
		TotalAmount decimal.Decimal
	}

	topN := filter.TopN
	if topN <= 0 {
		topN = 10
	}

	var results []customerResult

	err := r.db.WithContext(ctx).Table("orders o").
		Select(`
			o.customer_id as customer_id,
			cu.first_name as first_name,
			cu.last_name as last_name,
			cu.email as email,
			COUNT(o.id) as total_orders,
			COALESCE(SUM(o.total_amount), 0) as total_amount
		`).
		Joins("INNER JOIN customers cu ON cu.id = o.customer_id").
		Where("o.created_at BETWEEN ? AND ?", filter.StartDate, filter.EndDate).
		Where("o.status IN ?", revenueStatuses).
		Group("o.customer_id, cu.first_name, cu.last_name, cu.email").
		Order("total_amount DESC").
		Limit(topN).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	rankings := make([]report.CustomerRanking, len(results))
	for i, res := range results {
		rankings[i] = report.CustomerRanking{
			Rank:         i + 1,
			CustomerID:   res.CustomerID,
			CustomerName: res.FirstName + " " + res.LastName,
			Email:        res.Email,
			TotalOrders:  res.TotalOrders,
			TotalAmount:  res.TotalAmount,
		}
	}
	return rankings, nil
}

// Ensure GormSalesReportRepository implements SalesReportRepository
var _ report.SalesReportRepository = (*GormSalesReportRepository)(nil)
