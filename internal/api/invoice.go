package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

const msgInvoiceNotFound = "Invoice with given ID doesn't exists."

// CreateInvoice submits an invoice for approval.
// @Summary Submit invoice
// @Description Validates the invoice against the bill number and spend limit rules and stores it.
// @Description Rejected invoices are stored as not approved and an alert is sent to operators.
// @Tags invoices
// @Accept json
// @Produce json
// @Param InvoiceRequest body InvoiceRequest true "Invoice"
// @Success 201 {object} InvoiceCreationResponse "Invoice approved"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Unauthenticated"
// @Failure 422 {object} InvoiceCreationResponse "Invoice rejected"
// @Failure 500 {object} ErrorResponse "Failed to create invoice"
// @Router /invoices [post]
// @Security BearerAuth
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := entity.UserIDFromCtx(ctx)
	if err != nil {
		SendJSONErr(ctx, w, http.StatusUnauthorized, err, msgTokenInvalid)
		return
	}

	var req InvoiceRequest

	msg, err := decodeRequest(r, &req)
	if err != nil {
		SendJSONErr(ctx, w, http.StatusBadRequest, err, msg)
		return
	}

	res, err := h.invoices.CreateInvoice(ctx, req.toEntity(), userID)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidArgument):
			SendJSONErr(ctx, w, http.StatusBadRequest, err, "Validation failed")
		case errors.Is(err, entity.ErrUnauthenticated):
			SendJSONErr(ctx, w, http.StatusUnauthorized, err, msgTokenInvalid)
		default:
			SendJSONErr(ctx, w, http.StatusInternalServerError, err, "Failed to create invoice")
		}

		return
	}

	code := http.StatusCreated
	if !res.Successful {
		code = http.StatusUnprocessableEntity
	}

	SendJSON(ctx, w, code, InvoiceCreationResponse{
		Success:      res.Successful,
		Message:      res.Message,
		SavedInvoice: invoiceToAPI(res.Invoice),
	})
}

// Invoices returns the caller's invoices page by page, newest first.
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Param isApproved query bool false "Approval flag"
// @Param page query int false "Zero based page number" default(0)
// @Param pageSize query int false "Page size" default(10)
// @Success 200 {object} InvoicePageResponse
// @Failure 400 {object} ErrorResponse "Invalid query"
// @Failure 401 {object} ErrorResponse "Unauthenticated"
// @Failure 500 {object} ErrorResponse "Failed to get invoices"
// @Router /invoices [get]
// @Security BearerAuth
func (h *Handler) Invoices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := entity.UserIDFromCtx(ctx)
	if err != nil {
		SendJSONErr(ctx, w, http.StatusUnauthorized, err, msgTokenInvalid)
		return
	}

	filter, err := parseInvoiceFilter(r.URL.Query())
	if err != nil {
		SendJSONErr(ctx, w, http.StatusBadRequest, err, "Invalid query")
		return
	}

	page, err := h.invoices.Invoices(ctx, userID, filter)
	if err != nil {
		SendJSONErr(ctx, w, http.StatusInternalServerError, err, "Failed to get invoices")
		return
	}

	SendJSON(ctx, w, http.StatusOK, invoicePageToAPI(page))
}

// Invoice returns one invoice.
// @Summary Get invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 404 {object} ErrorResponse "Invoice not found"
// @Failure 500 {object} ErrorResponse "Failed to get invoice"
// @Router /invoices/{id} [get]
// @Security BearerAuth
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		SendJSONErr(ctx, w, http.StatusBadRequest, err, "Invalid id")
		return
	}

	inv, err := h.invoices.Invoice(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			SendJSONErr(ctx, w, http.StatusNotFound, err, msgInvoiceNotFound)
			return
		}

		SendJSONErr(ctx, w, http.StatusInternalServerError, err, "Failed to get invoice")

		return
	}

	SendJSON(ctx, w, http.StatusOK, invoiceToAPI(inv))
}

// DeleteInvoice removes an invoice. Missing invoices are ignored.
// @Summary Delete invoice
// @Tags invoices
// @Param id path string true "Invoice ID"
// @Success 204
// @Failure 400 {object} ErrorResponse "Invalid id"
// @Failure 500 {object} ErrorResponse "Failed to delete invoice"
// @Router /invoices/{id} [delete]
// @Security BearerAuth
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		SendJSONErr(ctx, w, http.StatusBadRequest, err, "Invalid id")
		return
	}

	err = h.invoices.DeleteInvoice(ctx, id)
	if err != nil {
		SendJSONErr(ctx, w, http.StatusInternalServerError, err, "Failed to delete invoice")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseInvoiceFilter(q url.Values) (entity.InvoiceFilter, error) {
	const (
		defaultPageSize uint64 = 10
		maxPageSize     uint64 = 100
	)

	filter := entity.InvoiceFilter{PageSize: defaultPageSize}

	if v := q.Get("isApproved"); v != "" {
		approved, err := strconv.ParseBool(v)
		if err != nil {
			return entity.InvoiceFilter{}, err
		}

		filter.IsApproved = &approved
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return entity.InvoiceFilter{}, err
		}

		filter.Page = page
	}

	if v := q.Get("pageSize"); v != "" {
		size, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return entity.InvoiceFilter{}, err
		}

		filter.PageSize = min(max(size, 1), maxPageSize)
	}

	return filter, nil
}
