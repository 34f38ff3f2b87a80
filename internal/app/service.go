package app

import (
	"context"

	"distributor-ledger/internal/core"
)

// ApplicationService is the single interface all adapters call. It decouples
// presentation from business logic: implementations validate requests, delegate
// to the core services, and contain no display logic of any kind.
type ApplicationService interface {
	// CreateGroup registers a new distribution group with a unique name.
	CreateGroup(ctx context.Context, req CreateGroupRequest) (*core.Group, error)

	// ListGroups returns all groups with their derived total stock value.
	ListGroups(ctx context.Context) (*GroupListResult, error)

	// DeleteGroup removes a group together with its products and sale records.
	DeleteGroup(ctx context.Context, groupID int) error

	// CreateProduct registers a product under a group with its initial stock.
	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)

	// GetProduct returns a single product by id.
	GetProduct(ctx context.Context, productID int) (*core.Product, error)

	// ListGroupProducts returns all products belonging to a group.
	ListGroupProducts(ctx context.Context, groupID int) (*ProductListResult, error)

	// DeleteProduct removes a product, recording the deletion in the history first.
	DeleteProduct(ctx context.Context, productID int) error

	// AddStock records a purchase batch: quantity added, blended cost recomputed,
	// sell prices overwritten.
	AddStock(ctx context.Context, productID int, req StockAdjustRequest) (*core.Product, error)

	// ReturnStock sends a batch back to the vendor at the given refund value.
	ReturnStock(ctx context.Context, productID int, req StockAdjustRequest) (*core.Product, error)

	// GetGroupHistory returns the stock-event history for a group's products.
	GetGroupHistory(ctx context.Context, groupID int) (*HistoryListResult, error)

	// SaveDailySale creates or replaces the draft sale for (group, date).
	// Drafts never touch stock.
	SaveDailySale(ctx context.Context, req SaveSaleRequest) (*core.DailySale, error)

	// LockDailySale finalizes a sale: consumes sold stock atomically and makes
	// the record immutable.
	LockDailySale(ctx context.Context, saleID int) (*core.DailySale, error)

	// GetTodaySale returns the group's sale record for today's date.
	GetTodaySale(ctx context.Context, groupID int) (*core.DailySale, error)

	// GetGroupDues returns every group's outstanding due and the grand total.
	GetGroupDues(ctx context.Context) (*DueListResult, error)

	// GetGroupCommissions returns a group's commission totals and breakdown.
	GetGroupCommissions(ctx context.Context, groupID int) (*core.CommissionSummary, error)

	// GetGroupRemarks returns a group's remark totals and breakdown.
	GetGroupRemarks(ctx context.Context, groupID int) (*core.RemarkSummary, error)

	// PayRemark applies a payment against one remark (rounding tolerance applies).
	PayRemark(ctx context.Context, remarkID int, req PayRemarkRequest) (*core.SaleRemark, error)

	// PayGroupDue appends an uncapped payment against a group's aggregate due.
	PayGroupDue(ctx context.Context, groupID int, req PayGroupRequest) (*core.GroupPayment, error)

	// IssueCredit deducts stock and opens a credit receivable entry.
	IssueCredit(ctx context.Context, req IssueCreditRequest) (*core.ProductTaken, error)

	// PayCredit applies a payment against a credit entry (exact comparison).
	PayCredit(ctx context.Context, entryID int, req PayCreditRequest) (*core.ProductTaken, error)

	// ReturnCredit restocks returned goods and refunds the entry pro rata.
	ReturnCredit(ctx context.Context, entryID int, req ReturnCreditRequest) (*core.ProductTaken, error)

	// ListOutstandingCredit returns a group's credit entries that are not fully paid.
	ListOutstandingCredit(ctx context.Context, groupID int) (*CreditListResult, error)

	// MonthlySalesReport returns a group's sale records and total for one month.
	MonthlySalesReport(ctx context.Context, groupID, month, year int) (*core.MonthlyReport, error)

	// YearlySalesReport returns a group's per-month sale totals for one year.
	YearlySalesReport(ctx context.Context, groupID, year int) (*YearlySalesResult, error)

	// DailyProfitReport returns revenue, COGS, expenses, and profit for one date.
	DailyProfitReport(ctx context.Context, date string) (*core.ProfitReport, error)

	// LifetimeProfitReport returns the all-time profit figures.
	LifetimeProfitReport(ctx context.Context) (*core.ProfitReport, error)

	// AddExpense records a business expense.
	AddExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error)

	// SetMonthlyTarget upserts a group's sales target for a month.
	SetMonthlyTarget(ctx context.Context, req TargetRequest) (*core.MonthlyTarget, error)

	// GetMonthlyTarget returns a group's target for a month (zero if unset).
	GetMonthlyTarget(ctx context.Context, groupID int, month string) (*core.MonthlyTarget, error)

	// Dashboard returns the headline metrics: year/month sales, profit, total due.
	Dashboard(ctx context.Context) (*core.DashboardMetrics, error)

	// TopProducts returns the best-selling products by total pieces sold.
	TopProducts(ctx context.Context, limit int) (*TopProductsResult, error)
}
