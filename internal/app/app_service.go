package app

import (
	"context"

	"github.com/go-playground/validator/v10"

	"distributor-ledger/internal/core"
)

// validate is shared across requests; validator instances cache struct metadata.
var validate = validator.New()

type appService struct {
	groups    core.GroupService
	stock     core.StockService
	sales     core.SaleService
	dues      core.DueService
	credit    core.CreditService
	reporting core.ReportingService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	groups core.GroupService,
	stock core.StockService,
	sales core.SaleService,
	dues core.DueService,
	credit core.CreditService,
	reporting core.ReportingService,
) ApplicationService {
	return &appService{
		groups:    groups,
		stock:     stock,
		sales:     sales,
		dues:      dues,
		credit:    credit,
		reporting: reporting,
	}
}

// ── Groups ────────────────────────────────────────────────────────────────────

func (s *appService) CreateGroup(ctx context.Context, req CreateGroupRequest) (*core.Group, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.groups.CreateGroup(ctx, req.Name)
}

func (s *appService) ListGroups(ctx context.Context) (*GroupListResult, error) {
	groups, err := s.groups.GetGroups(ctx)
	if err != nil {
		return nil, err
	}
	return &GroupListResult{Groups: groups}, nil
}

func (s *appService) DeleteGroup(ctx context.Context, groupID int) error {
	return s.groups.DeleteGroup(ctx, groupID)
}

// ── Products & stock ──────────────────────────────────────────────────────────

func (s *appService) CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.stock.CreateProduct(ctx, core.CreateProductInput{
		GroupID:           req.GroupID,
		Name:              req.Name,
		WeightType:        req.WeightType,
		WeightValue:       req.WeightValue,
		QuantityType:      req.QuantityType,
		TypeQty:           req.TypeQty,
		PiecesPerType:     req.PiecesPerType,
		PieceQty:          req.PieceQty,
		BuyPriceAvg:       req.BuyPriceAvg,
		SellPricePerType:  req.SellPricePerType,
		SellPricePerPiece: req.SellPricePerPiece,
	})
}

func (s *appService) GetProduct(ctx context.Context, productID int) (*core.Product, error) {
	return s.stock.GetProduct(ctx, productID)
}

func (s *appService) ListGroupProducts(ctx context.Context, groupID int) (*ProductListResult, error) {
	products, err := s.stock.GetProductsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) DeleteProduct(ctx context.Context, productID int) error {
	return s.stock.DeleteProduct(ctx, productID)
}

func (s *appService) AddStock(ctx context.Context, productID int, req StockAdjustRequest) (*core.Product, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.stock.AddStock(ctx, productID, stockInput(req))
}

func (s *appService) ReturnStock(ctx context.Context, productID int, req StockAdjustRequest) (*core.Product, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.stock.ReturnToVendor(ctx, productID, stockInput(req))
}

func stockInput(req StockAdjustRequest) core.StockTransactionInput {
	return core.StockTransactionInput{
		TypeQty:           req.TypeQty,
		PieceQty:          req.PieceQty,
		TotalBatchPrice:   req.TotalPrice,
		SellPricePerType:  req.SellPricePerType,
		SellPricePerPiece: req.SellPricePerPiece,
	}
}

func (s *appService) GetGroupHistory(ctx context.Context, groupID int) (*HistoryListResult, error) {
	entries, err := s.stock.GetGroupHistory(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &HistoryListResult{Entries: entries}, nil
}

// ── Daily sales ───────────────────────────────────────────────────────────────

func (s *appService) SaveDailySale(ctx context.Context, req SaveSaleRequest) (*core.DailySale, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	items := make([]core.SaleItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = core.SaleItemInput{
			ProductID:       it.ProductID,
			RequestTypeQty:  it.RequestTypeQty,
			RequestPieceQty: it.RequestPieceQty,
			ReturnTypeQty:   it.ReturnTypeQty,
			ReturnPieceQty:  it.ReturnPieceQty,
		}
	}
	remarks := make([]core.RemarkInput, len(req.Remarks))
	for i, r := range req.Remarks {
		remarks[i] = core.RemarkInput{Comment: r.Comment, Amount: r.Amount}
	}
	return s.sales.SaveDraft(ctx, core.SaveDraftInput{
		GroupID:      req.GroupID,
		Date:         req.Date,
		CashReceived: req.CashReceived,
		Items:        items,
		Remarks:      remarks,
	})
}

func (s *appService) LockDailySale(ctx context.Context, saleID int) (*core.DailySale, error) {
	return s.sales.Lock(ctx, saleID)
}

func (s *appService) GetTodaySale(ctx context.Context, groupID int) (*core.DailySale, error) {
	return s.sales.GetTodaySale(ctx, groupID)
}

// ── Dues ──────────────────────────────────────────────────────────────────────

func (s *appService) GetGroupDues(ctx context.Context) (*DueListResult, error) {
	dues, err := s.dues.GetGroupsTotalDue(ctx)
	if err != nil {
		return nil, err
	}
	result := &DueListResult{Groups: dues}
	for _, d := range dues {
		result.TotalDue = result.TotalDue.Add(d.TotalDue)
	}
	return result, nil
}

func (s *appService) GetGroupCommissions(ctx context.Context, groupID int) (*core.CommissionSummary, error) {
	return s.dues.GetGroupCommissions(ctx, groupID)
}

func (s *appService) GetGroupRemarks(ctx context.Context, groupID int) (*core.RemarkSummary, error) {
	return s.dues.GetGroupRemarks(ctx, groupID)
}

func (s *appService) PayRemark(ctx context.Context, remarkID int, req PayRemarkRequest) (*core.SaleRemark, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.dues.PayRemark(ctx, remarkID, req.GroupID, req.Amount, req.Date)
}

func (s *appService) PayGroupDue(ctx context.Context, groupID int, req PayGroupRequest) (*core.GroupPayment, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.dues.PayGroup(ctx, groupID, req.Amount, core.PaymentType(req.PaymentType), req.Date)
}

// ── Credit entries ────────────────────────────────────────────────────────────

func (s *appService) IssueCredit(ctx context.Context, req IssueCreditRequest) (*core.ProductTaken, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.credit.Issue(ctx, core.IssueCreditInput{
		GroupID:    req.GroupID,
		ProductID:  req.ProductID,
		TypeQty:    req.TypeQty,
		PieceQty:   req.PieceQty,
		TotalPrice: req.TotalPrice,
		Date:       req.Date,
	})
}

func (s *appService) PayCredit(ctx context.Context, entryID int, req PayCreditRequest) (*core.ProductTaken, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.credit.Pay(ctx, entryID, req.Amount)
}

func (s *appService) ReturnCredit(ctx context.Context, entryID int, req ReturnCreditRequest) (*core.ProductTaken, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.credit.Return(ctx, entryID, req.TypeQty, req.PieceQty)
}

func (s *appService) ListOutstandingCredit(ctx context.Context, groupID int) (*CreditListResult, error) {
	entries, err := s.credit.ListOutstanding(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return &CreditListResult{Entries: entries}, nil
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (s *appService) MonthlySalesReport(ctx context.Context, groupID, month, year int) (*core.MonthlyReport, error) {
	return s.reporting.MonthlySales(ctx, groupID, month, year)
}

func (s *appService) YearlySalesReport(ctx context.Context, groupID, year int) (*YearlySalesResult, error) {
	months, err := s.reporting.YearlySales(ctx, groupID, year)
	if err != nil {
		return nil, err
	}
	return &YearlySalesResult{Year: year, Months: months}, nil
}

func (s *appService) DailyProfitReport(ctx context.Context, date string) (*core.ProfitReport, error) {
	return s.reporting.DailyProfit(ctx, date)
}

func (s *appService) LifetimeProfitReport(ctx context.Context) (*core.ProfitReport, error) {
	return s.reporting.LifetimeProfit(ctx)
}

func (s *appService) AddExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.reporting.AddExpense(ctx, req.Description, req.Amount, req.Date)
}

func (s *appService) SetMonthlyTarget(ctx context.Context, req TargetRequest) (*core.MonthlyTarget, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.reporting.SetMonthlyTarget(ctx, req.GroupID, req.Month, req.Amount)
}

func (s *appService) GetMonthlyTarget(ctx context.Context, groupID int, month string) (*core.MonthlyTarget, error) {
	return s.reporting.GetMonthlyTarget(ctx, groupID, month)
}

func (s *appService) Dashboard(ctx context.Context) (*core.DashboardMetrics, error) {
	return s.reporting.Dashboard(ctx)
}

func (s *appService) TopProducts(ctx context.Context, limit int) (*TopProductsResult, error) {
	products, err := s.reporting.TopProducts(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &TopProductsResult{Products: products}, nil
}
