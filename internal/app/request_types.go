package app

import (
	"github.com/shopspring/decimal"
)

// Request types carry validated JSON payloads from the web adapter into the
// facade. Field names follow the wire contract the frontend already speaks.

// CreateGroupRequest is the input for registering a new distribution group.
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateProductRequest is the input for registering a new product under a group.
type CreateProductRequest struct {
	GroupID           int             `json:"group_id" validate:"required"`
	Name              string          `json:"name" validate:"required"`
	WeightValue       decimal.Decimal `json:"weight_value"`
	WeightType        string          `json:"weight_type"`
	QuantityType      string          `json:"quantity_type"`
	TypeQty           int             `json:"quantity_value" validate:"gte=0"`
	PiecesPerType     int             `json:"pieces_per_quantity" validate:"gte=1"`
	PieceQty          int             `json:"pieces_quantity" validate:"gte=0"`
	BuyPriceAvg       decimal.Decimal `json:"buy_price"`
	SellPricePerType  decimal.Decimal `json:"sell_price"`
	SellPricePerPiece decimal.Decimal `json:"sell_price_pieces"`
}

// StockAdjustRequest describes one restock or vendor-return batch.
// TotalPrice is the batch's total cost (restock) or total refund value (return).
type StockAdjustRequest struct {
	TypeQty           int             `json:"quantity_value" validate:"gte=0"`
	PieceQty          int             `json:"pieces_quantity" validate:"gte=0"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	SellPricePerType  decimal.Decimal `json:"sell_price"`
	SellPricePerPiece decimal.Decimal `json:"sell_price_pieces"`
}

// SaleItemRequest is a single product line within a daily sale draft.
type SaleItemRequest struct {
	ProductID       int `json:"product_id" validate:"required"`
	RequestTypeQty  int `json:"request_quantity_value" validate:"gte=0"`
	RequestPieceQty int `json:"request_pieces_quantity" validate:"gte=0"`
	ReturnTypeQty   int `json:"return_quantity_value" validate:"gte=0"`
	ReturnPieceQty  int `json:"return_pieces_quantity" validate:"gte=0"`
}

// SaleRemarkRequest is an ad-hoc deduction line attached to a daily sale.
type SaleRemarkRequest struct {
	Comment string          `json:"comment"`
	Amount  decimal.Decimal `json:"amount"`
}

// SaveSaleRequest creates or replaces the draft sale for (group, date).
// An empty Date means today.
type SaveSaleRequest struct {
	GroupID      int                 `json:"group_id" validate:"required"`
	Date         string              `json:"date"`
	CashReceived decimal.Decimal     `json:"cash_received"`
	Items        []SaleItemRequest   `json:"items" validate:"dive"`
	Remarks      []SaleRemarkRequest `json:"remarks" validate:"dive"`
}

// PayRemarkRequest applies a partial payment against one sale remark.
type PayRemarkRequest struct {
	GroupID int             `json:"group_id" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	Date    string          `json:"date"`
}

// PayGroupRequest appends an uncapped payment against a group's aggregate due.
type PayGroupRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentType string          `json:"payment_type" validate:"oneof=commission remark"`
	Date        string          `json:"date"`
}

// IssueCreditRequest opens a credit entry: goods leave stock now, payment later.
type IssueCreditRequest struct {
	GroupID    int             `json:"group_id" validate:"required"`
	ProductID  int             `json:"product_id" validate:"required"`
	TypeQty    int             `json:"quantity_value" validate:"gte=0"`
	PieceQty   int             `json:"pieces_quantity" validate:"gte=0"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Date       string          `json:"date"`
}

// PayCreditRequest applies a payment against a credit entry.
type PayCreditRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// ReturnCreditRequest takes back part of the goods issued on a credit entry.
type ReturnCreditRequest struct {
	TypeQty  int `json:"quantity_value" validate:"gte=0"`
	PieceQty int `json:"pieces_quantity" validate:"gte=0"`
}

// ExpenseRequest records a business expense for a date (empty means today).
type ExpenseRequest struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Date        string          `json:"date"`
}

// TargetRequest sets a group's sales target for a "YYYY-MM" month.
type TargetRequest struct {
	GroupID int             `json:"group_id" validate:"required"`
	Month   string          `json:"month" validate:"required"`
	Amount  decimal.Decimal `json:"target_amount"`
}
