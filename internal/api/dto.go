package api

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

var (
	minInvoiceAmount = decimal.RequireFromString("0.01")
	maxInvoiceAmount = decimal.RequireFromString("999999999999")
)

type InvoiceRequest struct {
	FirstName   string          `json:"firstName" validate:"required,min=2,max=100"`
	LastName    string          `json:"lastName" validate:"required,min=2,max=100"`
	Email       string          `json:"email" validate:"required,email,min=6,max=320"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number"`
	ProductCode string          `json:"productCode" validate:"required,productcode"`
	BillNo      string          `json:"billNo" validate:"required,billno"`
}

func (r *InvoiceRequest) Validate() error {
	err := validateStruct(r)
	if err != nil {
		return err
	}

	if r.Amount.LessThan(minInvoiceAmount) || r.Amount.GreaterThan(maxInvoiceAmount) {
		return fmt.Errorf("%w: amount: must be between %s and %s", entity.ErrInvalidArgument, minInvoiceAmount, maxInvoiceAmount)
	}

	if r.Amount.Exponent() < -2 {
		return fmt.Errorf("%w: amount: at most 2 fraction digits", entity.ErrInvalidArgument)
	}

	return nil
}

func (r *InvoiceRequest) toEntity() entity.Invoice {
	return entity.Invoice{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Amount:      r.Amount,
		ProductCode: r.ProductCode,
		BillNo:      r.BillNo,
	}
}

type InvoiceResponse struct {
	ID          uuid.UUID       `json:"id"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Email       string          `json:"email"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
	ProductCode string          `json:"productCode"`
	BillNo      string          `json:"billNo"`
	IsApproved  bool            `json:"isApproved"`
	CreatedBy   uuid.UUID       `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func invoiceToAPI(inv entity.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:          inv.ID,
		FirstName:   inv.FirstName,
		LastName:    inv.LastName,
		Email:       inv.Email,
		Amount:      inv.Amount,
		ProductCode: inv.ProductCode,
		BillNo:      inv.BillNo,
		IsApproved:  inv.IsApproved,
		CreatedBy:   inv.CreatedBy,
		CreatedAt:   inv.CreatedAt,
	}
}

type InvoiceCreationResponse struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	SavedInvoice InvoiceResponse `json:"savedInvoice"`
}

type Pageable struct {
	PageNumber    uint64 `json:"pageNumber"`
	PageSize      uint64 `json:"pageSize"`
	TotalElements int    `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
}

type InvoicePageResponse struct {
	Content  []InvoiceResponse `json:"content"`
	Pageable Pageable          `json:"pageable"`
}

func invoicePageToAPI(p entity.Page[entity.Invoice]) InvoicePageResponse {
	return InvoicePageResponse{
		Content: lo.Map(p.Content, func(inv entity.Invoice, _ int) InvoiceResponse {
			return invoiceToAPI(inv)
		}),
		Pageable: Pageable{
			PageNumber:    p.PageNumber,
			PageSize:      p.PageSize,
			TotalElements: p.TotalElements,
			TotalPages:    p.TotalPages(),
		},
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,min=6,max=320"`
	FullName string `json:"fullName" validate:"required,min=5,max=255"`
	Password string `json:"password" validate:"required,min=6,max=255"`
}

func (r *RegisterRequest) Validate() error {
	return validateStruct(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,min=6,max=320"`
	Password string `json:"password" validate:"required,min=6,max=255"`
}

func (r *LoginRequest) Validate() error {
	return validateStruct(r)
}

type AuthResponse struct {
	Token string `json:"token"`
	// ExpiresIn is the token lifetime in milliseconds.
	ExpiresIn int64 `json:"expiresIn"`
}

func authToAPI(t entity.AuthToken) AuthResponse {
	return AuthResponse{
		Token:     t.Token,
		ExpiresIn: t.ExpiresIn.Milliseconds(),
	}
}

type AlertRequest struct {
	Message string `json:"message" validate:"required,max=3000"`
}

func (r *AlertRequest) Validate() error {
	return validateStruct(r)
}
