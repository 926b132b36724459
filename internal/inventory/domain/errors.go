package domain

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/clinicstock/backend/pkg/errors"
)

// Sentinels for the stock rules. Every constructor below wraps one of them, so
// callers branch with errors.Is regardless of the message.
var (
	ErrUnknownProduct          = stderrors.New("unknown product")
	ErrUnknownSupplier         = stderrors.New("unknown supplier")
	ErrDuplicateSku            = stderrors.New("duplicate sku")
	ErrDuplicateBarcode        = stderrors.New("duplicate barcode")
	ErrDuplicateBatch          = stderrors.New("duplicate batch number")
	ErrDuplicateOrderNumber    = stderrors.New("duplicate order number")
	ErrInsufficientStock       = stderrors.New("insufficient stock")
	ErrInactiveBatch           = stderrors.New("batch is not active")
	ErrOverReceipt             = stderrors.New("receipt exceeds ordered quantity")
	ErrEmptyOrder              = stderrors.New("purchase order has no line items")
	ErrInvalidQuantity         = stderrors.New("invalid quantity")
	ErrInvalidStatusTransition = stderrors.New("invalid status transition")
)

func UnknownProduct(id uuid.UUID) *errors.AppError {
	return &errors.AppError{
		Err:        ErrUnknownProduct,
		Code:       "UNKNOWN_PRODUCT",
		Message:    fmt.Sprintf("product %s does not exist", id),
		StatusCode: http.StatusNotFound,
	}
}

func UnknownSupplier(id uuid.UUID) *errors.AppError {
	return &errors.AppError{
		Err:        ErrUnknownSupplier,
		Code:       "UNKNOWN_SUPPLIER",
		Message:    fmt.Sprintf("supplier %s does not exist", id),
		StatusCode: http.StatusNotFound,
	}
}

func DuplicateSku(sku string) *errors.AppError {
	return &errors.AppError{
		Err:        ErrDuplicateSku,
		Code:       "DUPLICATE_SKU",
		Message:    fmt.Sprintf("a product with sku %q already exists", sku),
		StatusCode: http.StatusConflict,
	}
}

func DuplicateBarcode(barcode string) *errors.AppError {
	return &errors.AppError{
		Err:        ErrDuplicateBarcode,
		Code:       "DUPLICATE_BARCODE",
		Message:    fmt.Sprintf("a product with barcode %q already exists", barcode),
		StatusCode: http.StatusConflict,
	}
}

func DuplicateBatch(batchNumber string) *errors.AppError {
	return &errors.AppError{
		Err:        ErrDuplicateBatch,
		Code:       "DUPLICATE_BATCH",
		Message:    fmt.Sprintf("batch number %q is already registered", batchNumber),
		StatusCode: http.StatusConflict,
	}
}

func DuplicateOrderNumber(orderNumber string) *errors.AppError {
	return &errors.AppError{
		Err:        ErrDuplicateOrderNumber,
		Code:       "DUPLICATE_ORDER_NUMBER",
		Message:    fmt.Sprintf("purchase order %q already exists", orderNumber),
		StatusCode: http.StatusConflict,
	}
}

func InsufficientStock(batchID uuid.UUID, requested, remaining int) *errors.AppError {
	return &errors.AppError{
		Err:        ErrInsufficientStock,
		Code:       "INSUFFICIENT_STOCK",
		Message:    fmt.Sprintf("batch %s has %d remaining, %d requested", batchID, remaining, requested),
		StatusCode: http.StatusConflict,
		Details: map[string]string{
			"requested": fmt.Sprint(requested),
			"remaining": fmt.Sprint(remaining),
		},
	}
}

func InactiveBatch(batchID uuid.UUID, status BatchStatus) *errors.AppError {
	return &errors.AppError{
		Err:        ErrInactiveBatch,
		Code:       "INACTIVE_BATCH",
		Message:    fmt.Sprintf("batch %s is %s", batchID, status),
		StatusCode: http.StatusConflict,
		Details:    map[string]string{"status": string(status)},
	}
}

func OverReceipt(itemID uuid.UUID, ordered, received, quantity int) *errors.AppError {
	return &errors.AppError{
		Err:  ErrOverReceipt,
		Code: "OVER_RECEIPT",
		Message: fmt.Sprintf("line %s: receiving %d would exceed ordered %d (already received %d)",
			itemID, quantity, ordered, received),
		StatusCode: http.StatusConflict,
	}
}

func EmptyOrder() *errors.AppError {
	return &errors.AppError{
		Err:        ErrEmptyOrder,
		Code:       "EMPTY_ORDER",
		Message:    "a purchase order needs at least one line item",
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func InvalidQuantity(format string, args ...any) *errors.AppError {
	return &errors.AppError{
		Err:        ErrInvalidQuantity,
		Code:       "INVALID_QUANTITY",
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func InvalidStatusTransition(entity string, from, to any) *errors.AppError {
	return &errors.AppError{
		Err:        ErrInvalidStatusTransition,
		Code:       "INVALID_STATUS_TRANSITION",
		Message:    fmt.Sprintf("%s cannot move from %v to %v", entity, from, to),
		StatusCode: http.StatusConflict,
	}
}
