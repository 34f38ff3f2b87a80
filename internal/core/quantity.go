package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Stock quantities live in two radices at once: bulk "type" units (cartons, dozens)
// and loose pieces, tied together by a per-product piecesPerType ratio. Every mutation
// works in total-piece space and re-splits, so the invariant 0 <= pieces < ratio holds
// after each operation.

// NormalizeQuantity carries excess pieces into type units so that the piece remainder
// is within [0, piecesPerType). A non-positive ratio returns the input unchanged;
// products are created with ratio >= 1, so that branch is a defensive no-op.
// Negative piece counts borrow from type units (floored division), e.g. (2, -5, 12)
// normalizes to (1, 7).
func NormalizeQuantity(typeQty, pieceQty, piecesPerType int) (int, int) {
	if piecesPerType <= 0 {
		return typeQty, pieceQty
	}
	return typeQty + floorDiv(pieceQty, piecesPerType), floorMod(pieceQty, piecesPerType)
}

// TotalPieces collapses a (type, piece) pair into its scalar piece count.
// The total order on quantities is defined through this value.
func TotalPieces(typeQty, pieceQty, piecesPerType int) int {
	return typeQty*piecesPerType + pieceQty
}

// SplitPieces re-splits a non-negative piece total into (type, piece) form.
func SplitPieces(totalPieces, piecesPerType int) (int, int) {
	if piecesPerType <= 0 {
		return 0, totalPieces
	}
	return totalPieces / piecesPerType, totalPieces % piecesPerType
}

// SubtractQuantity removes (subType, subPiece) from (baseType, basePiece), borrowing
// from type units as needed. Returns ErrInsufficientStock when the subtrahend exceeds
// the base in total pieces; no partial result is produced.
func SubtractQuantity(baseType, basePiece, subType, subPiece, piecesPerType int) (int, int, error) {
	totalBase := TotalPieces(baseType, basePiece, piecesPerType)
	totalSub := TotalPieces(subType, subPiece, piecesPerType)

	remaining := totalBase - totalSub
	if remaining < 0 {
		return 0, 0, fmt.Errorf("need %d pieces, have %d: %w", totalSub, totalBase, ErrInsufficientStock)
	}
	t, p := SplitPieces(remaining, piecesPerType)
	return t, p, nil
}

// WeightedAverageCost blends a signed batch into the moving-average cost per piece:
//
//	(currentPieces × currentAvg + deltaCost) / (currentPieces + deltaPieces)
//
// deltaCost is positive for a purchase batch's total cost and negative for a vendor
// return's total refund value, with deltaPieces signed to match. A zero denominator
// means all stock was zeroed out; the cost basis is discarded, not preserved.
// Every unit of a product shares one blended cost — this is moving average, not FIFO.
func WeightedAverageCost(currentPieces int, currentAvg decimal.Decimal, deltaPieces int, deltaCost decimal.Decimal) decimal.Decimal {
	newPieces := currentPieces + deltaPieces
	if newPieces == 0 {
		return decimal.Zero
	}
	currentValue := decimal.NewFromInt(int64(currentPieces)).Mul(currentAvg)
	return currentValue.Add(deltaCost).Div(decimal.NewFromInt(int64(newPieces)))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}
