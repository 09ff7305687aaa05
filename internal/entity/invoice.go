package entity

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

const (
	MsgInvoiceApproved      = "Invoice approved and saved successfully."
	MsgInvoiceBillNoExists  = "Given bill no already exists."
	MsgInvoiceLimitExceeded = "Invoice is not approved. Total invoice amount is above the limit. " +
		"Already Approved: %s, Invoice: %s, Limit: %s"
)

var (
	BillNoRegexp      = regexp.MustCompile(`^[A-Za-z]{3}\d{13}$`)
	ProductCodeRegexp = regexp.MustCompile(`^\S{6}$`)
)

type Invoice struct {
	ID          uuid.UUID // Filled by DB.
	FirstName   string
	LastName    string
	Email       string
	Amount      decimal.Decimal
	ProductCode string
	BillNo      string
	IsApproved  bool
	CreatedBy   uuid.UUID
	CreatedAt   time.Time // Filled by DB.
}

// Validate checks invoice invariants that do not depend on stored data.
func (i Invoice) Validate() error {
	if !i.Amount.IsPositive() {
		return fmt.Errorf("%w: amount %s is not positive", ErrInvalidArgument, i.Amount)
	}

	if !BillNoRegexp.MatchString(i.BillNo) {
		return fmt.Errorf("%w: bill no %q must be 3 letters followed by 13 digits", ErrInvalidArgument, i.BillNo)
	}

	if !ProductCodeRegexp.MatchString(i.ProductCode) {
		return fmt.Errorf("%w: product code %q must be 6 non-space characters", ErrInvalidArgument, i.ProductCode)
	}

	return nil
}

type InvoiceFilter struct {
	IsApproved *bool
	Page       uint64 // zero based
	PageSize   uint64
}

func (f InvoiceFilter) Offset() uint64 {
	return f.Page * f.PageSize
}

// Verdict is the outcome of one validation pass. It is never stored.
type Verdict struct {
	Successful bool
	Message    string
}

func Approved() Verdict {
	return Verdict{Successful: true}
}

func Rejected(msg string) Verdict {
	return Verdict{Successful: false, Message: msg}
}

type InvoiceCreationResult struct {
	Successful bool
	Message    string
	Invoice    Invoice
}

type Page[T any] struct {
	Content       []T
	PageNumber    uint64
	PageSize      uint64
	TotalElements int
}

func (p Page[T]) TotalPages() int {
	if p.PageSize == 0 {
		return 0
	}

	size := int(p.PageSize)

	return (p.TotalElements + size - 1) / size
}
