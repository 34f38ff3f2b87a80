package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus is the daily-sale lifecycle state. A sale is created as draft and
// reaches completed only through the lock transition, which is terminal.
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "draft"
	SaleStatusCompleted SaleStatus = "completed"
)

// PaymentType tags a group payment ledger row.
type PaymentType string

const (
	PaymentTypeCommission PaymentType = "commission"
	PaymentTypeRemark     PaymentType = "remark"
)

type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// TotalStockValue is derived on read: Σ totalPieces × avgCostPerPiece over the
	// group's products. Never persisted.
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
}

// Product is the stock row for one item in a group. Quantity is held as
// (TypeQty type units, PieceQty loose pieces) against PiecesPerType, with
// 0 <= PieceQty < PiecesPerType after every mutation. BuyPriceAvg is the moving
// average cost per piece.
type Product struct {
	ID      int    `json:"id"`
	GroupID int    `json:"group_id"`
	Name    string `json:"name"`

	WeightType  string          `json:"weight_type"` // 'g', 'kg', 'ml', 'L'
	WeightValue decimal.Decimal `json:"weight_value"`

	QuantityType  string `json:"quantity_type"` // 'Carton', 'Dozen', 'Poly', 'Pieces'
	TypeQty       int    `json:"quantity_value"`
	PiecesPerType int    `json:"pieces_per_quantity"`
	PieceQty      int    `json:"pieces_quantity"`

	BuyPriceAvg       decimal.Decimal `json:"buy_price_avg"` // cost per piece
	SellPricePerType  decimal.Decimal `json:"sell_price_per_type"`
	SellPricePerPiece decimal.Decimal `json:"sell_price_per_piece"`
}

// TotalPieces returns the product's current stock as a scalar piece count.
func (p *Product) TotalPieces() int {
	return TotalPieces(p.TypeQty, p.PieceQty, p.PiecesPerType)
}

// ProductHistory is an append-only audit trail of stock events. It snapshots the
// product and group names so rows survive deletion of either. Carries no invariants.
type ProductHistory struct {
	ID          int       `json:"id"`
	ProductID   *int      `json:"product_id,omitempty"`
	ProductName string    `json:"product_name"`
	GroupName   string    `json:"group_name"`
	Action      string    `json:"action"` // 'Added', 'Returned', 'Deleted'
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// DailySale is one group's point-of-sale session for one calendar date.
// (GroupID, Date) is unique. Once IsLocked the record and its items are immutable.
type DailySale struct {
	ID      int    `json:"id"`
	GroupID int    `json:"group_id"`
	Date    string `json:"date"` // YYYY-MM-DD

	TotalAmount  decimal.Decimal `json:"total_amount"`
	CashReceived decimal.Decimal `json:"cash_received"`
	Due          decimal.Decimal `json:"due"`
	Commission   decimal.Decimal `json:"commission"`

	Status   SaleStatus `json:"status"`
	IsLocked bool       `json:"is_locked"`

	Items   []SaleItem   `json:"sale_items"`
	Remarks []SaleRemark `json:"remarks"`
}

// SaleItem is one product line in a daily sale. Sold quantities are derived as
// requested − returned, re-split by the product's ratio; Price is captured from the
// product's sell prices when the draft is saved. ProductID is nil once the
// product has been deleted; the line itself survives.
type SaleItem struct {
	ID          int  `json:"id"`
	DailySaleID int  `json:"daily_sale_id"`
	ProductID   *int `json:"product_id"`

	RequestTypeQty  int `json:"request_type_qty"`
	RequestPieceQty int `json:"request_piece_qty"`
	ReturnTypeQty   int `json:"return_type_qty"`
	ReturnPieceQty  int `json:"return_piece_qty"`
	SoldTypeQty     int `json:"sold_type_qty"`
	SoldPieceQty    int `json:"sold_piece_qty"`

	Price decimal.Decimal `json:"price"`
}

// SaleRemark is an ad-hoc deduction (an expense, a discount) applied against a day's
// sale total, individually payable afterwards.
type SaleRemark struct {
	ID          int             `json:"id"`
	DailySaleID int             `json:"daily_sale_id"`
	Comment     string          `json:"comment"`
	Amount      decimal.Decimal `json:"amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	IsFullyPaid bool            `json:"is_fully_paid"`
}

// ProductTaken is a running receivable: goods issued to a group on credit, paid
// down and/or partially returned over time. Never deleted automatically.
type ProductTaken struct {
	ID        int `json:"id"`
	GroupID   int `json:"group_id"`
	ProductID int `json:"product_id"`

	// Snapshot in case the product is deleted later.
	ProductName string `json:"product_name"`

	TypeQty  int `json:"quantity"`
	PieceQty int `json:"pieces"`

	TotalPrice  decimal.Decimal `json:"total_price"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Date        string          `json:"date"`
	IsFullyPaid bool            `json:"is_fully_paid"`

	// Joined from the product for display; defaults when the product is gone.
	QuantityType  string `json:"quantity_type"`
	PiecesPerType int    `json:"pieces_per_quantity"`
}

// GroupPayment is an append-only ledger row of money received from a group,
// tagged commission or remark. Used only in aggregate, never mutated.
type GroupPayment struct {
	ID          int             `json:"id"`
	GroupID     int             `json:"group_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentType PaymentType     `json:"payment_type"`
	Date        string          `json:"date"`
}

type Expense struct {
	ID          int             `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// MonthlyTarget is a per-group sales target for one "YYYY-MM" month.
type MonthlyTarget struct {
	ID           int             `json:"id"`
	GroupID      int             `json:"group_id"`
	Month        string          `json:"month"`
	TargetAmount decimal.Decimal `json:"target_amount"`
}
