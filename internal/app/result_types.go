package app

import (
	"github.com/shopspring/decimal"

	"distributor-ledger/internal/core"
)

// GroupListResult is returned by ListGroups.
type GroupListResult struct {
	Groups []core.Group `json:"groups"`
}

// ProductListResult is returned by ListGroupProducts.
type ProductListResult struct {
	Products []core.Product `json:"products"`
}

// HistoryListResult is returned by GetGroupHistory.
type HistoryListResult struct {
	Entries []core.ProductHistory `json:"history"`
}

// DueListResult is returned by GetGroupDues.
type DueListResult struct {
	Groups   []core.GroupDue `json:"groups"`
	TotalDue decimal.Decimal `json:"total_due"`
}

// CreditListResult is returned by ListOutstandingCredit.
type CreditListResult struct {
	Entries []core.ProductTaken `json:"entries"`
}

// YearlySalesResult is returned by YearlySalesReport.
type YearlySalesResult struct {
	Year   int               `json:"year"`
	Months []core.MonthTotal `json:"months"`
}

// TopProductsResult is returned by TopProducts.
type TopProductsResult struct {
	Products []core.TopProduct `json:"products"`
}
