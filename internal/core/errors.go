package core

import "errors"

// Failure kinds surfaced by the core services. All are recoverable at the caller;
// adapters map them to stable wire codes. Services wrap these with fmt.Errorf("...: %w")
// so callers test with errors.Is.
var (
	// ErrInsufficientStock — a subtraction (vendor return, sale lock, credit issue)
	// would drive the product's piece count negative. No partial effect occurs.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidReturn — a sale item's returned quantity exceeds its requested quantity.
	ErrInvalidReturn = errors.New("return quantity exceeds requested quantity")

	// ErrSaleLocked — the target daily sale is locked and immutable.
	ErrSaleLocked = errors.New("sale is locked")

	// ErrOverPayment — a remark payment would exceed the outstanding amount beyond
	// the rounding tolerance.
	ErrOverPayment = errors.New("payment exceeds remaining amount")

	// ErrNotFound — a referenced group, product, sale, remark, or credit entry
	// does not exist.
	ErrNotFound = errors.New("not found")
)
