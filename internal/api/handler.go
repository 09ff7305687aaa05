package api

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

// @title Back office API
// @version 1.0
// @description Invoice submission with approval workflow, authentication and operator alerts
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

//go:generate go run go.uber.org/mock/mockgen@latest -source=handler.go -destination=../mocks/handler.go -package=mocks

type InvoiceService interface {
	CreateInvoice(ctx context.Context, inv entity.Invoice, submitterID uuid.UUID) (entity.InvoiceCreationResult, error)
	Invoice(ctx context.Context, id uuid.UUID) (entity.Invoice, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
	Invoices(ctx context.Context, ownerID uuid.UUID, f entity.InvoiceFilter) (entity.Page[entity.Invoice], error)
}

type UserService interface {
	Register(ctx context.Context, email, password, fullName string) (entity.AuthToken, error)
	Login(ctx context.Context, email, password string) (entity.AuthToken, error)
}

type AlertSender interface {
	Send(ctx context.Context, message string) error
}

type Handler struct {
	invoices InvoiceService
	users    UserService
	alerts   AlertSender
}

func NewHandler(invoices InvoiceService, users UserService, alerts AlertSender) *Handler {
	return &Handler{
		invoices: invoices,
		users:    users,
		alerts:   alerts,
	}
}

// HealthHandler - returns service health status.
// @Summary Health check
// @Description Health check
// @Tags health
// @Accept text/plain
// @Produce text/plain
// @Success 200 {string} string "OK"
// @Router /health [get]
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, err := w.Write([]byte("OK\n"))
	if err != nil {
		SendJSONErr(ctx, w, http.StatusInternalServerError, err, "Service is unavailable")
		return
	}
}
