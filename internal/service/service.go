package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/samandr77/microservices/backoffice/internal/entity"
	"github.com/samandr77/microservices/backoffice/pkg/metrics"
)

//go:generate go run go.uber.org/mock/mockgen@latest -source=service.go -destination=../mocks/service.go -package=mocks

const alertMessageFormat = "%s \n> userId: `%s`, invoiceId: `%s`"

type Repository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockSubmission(ctx context.Context, ownerID uuid.UUID, billNo string) error
	CreateInvoice(ctx context.Context, inv entity.Invoice) (entity.Invoice, error)
	Invoice(ctx context.Context, id uuid.UUID) (entity.Invoice, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
	InvoicesByBillNo(ctx context.Context, billNo string, approved bool) ([]entity.Invoice, error)
	Invoices(ctx context.Context, ownerID uuid.UUID, f entity.InvoiceFilter) ([]entity.Invoice, int, error)
	InvoiceAmountTotal(ctx context.Context, userID *uuid.UUID, approved *bool) (decimal.Decimal, error)
}

type AlertNotifier interface {
	Notify(ctx context.Context, message string)
}

type Producer interface {
	SendInvoiceSubmitted(ctx context.Context, inv entity.Invoice, reason string)
}

type Config struct {
	LimitPerUser decimal.Decimal
	// SerializeSubmissions runs validation and persist of one submission in a transaction
	// holding advisory locks on the owner and the bill number.
	SerializeSubmissions bool
}

type Service struct {
	cfg      Config
	repo     Repository
	notifier AlertNotifier
	producer Producer
	metrics  *metrics.Metrics
}

func New(cfg Config, repo Repository, notifier AlertNotifier, producer Producer, m *metrics.Metrics) *Service {
	return &Service{
		cfg:      cfg,
		repo:     repo,
		notifier: notifier,
		producer: producer,
		metrics:  m,
	}
}

// CreateInvoice validates the invoice, stores it with the resulting approval flag and
// alerts operators when it was rejected. Rejected invoices are stored too.
func (s *Service) CreateInvoice(
	ctx context.Context,
	inv entity.Invoice,
	submitterID uuid.UUID,
) (entity.InvoiceCreationResult, error) {
	if submitterID == uuid.Nil {
		return entity.InvoiceCreationResult{}, entity.ErrUnauthenticated
	}

	inv.CreatedBy = submitterID

	err := inv.Validate()
	if err != nil {
		return entity.InvoiceCreationResult{}, err
	}

	var (
		verdict entity.Verdict
		saved   entity.Invoice
	)

	submit := func(ctx context.Context) error {
		if s.cfg.SerializeSubmissions {
			err := s.repo.LockSubmission(ctx, submitterID, inv.BillNo)
			if err != nil {
				return fmt.Errorf("lock submission: %w", err)
			}
		}

		var err error

		verdict, err = s.ValidateInvoice(ctx, inv, submitterID)
		if err != nil {
			return err
		}

		inv.IsApproved = verdict.Successful

		saved, err = s.repo.CreateInvoice(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		return nil
	}

	if s.cfg.SerializeSubmissions {
		err = s.repo.WithinTx(ctx, submit)
	} else {
		err = submit(ctx)
	}

	if err != nil {
		s.metrics.InvoiceSubmissions.WithLabelValues(metrics.ResultError).Inc()
		return entity.InvoiceCreationResult{}, err
	}

	s.producer.SendInvoiceSubmitted(ctx, saved, verdict.Message)

	if !verdict.Successful {
		s.metrics.InvoiceSubmissions.WithLabelValues(metrics.ResultRejected).Inc()

		slog.WarnContext(ctx, "invoice rejected", "invoice_id", saved.ID, "reason", verdict.Message)

		s.notifier.Notify(ctx, fmt.Sprintf(alertMessageFormat, verdict.Message, saved.CreatedBy, saved.ID))

		return entity.InvoiceCreationResult{
			Successful: false,
			Message:    verdict.Message,
			Invoice:    saved,
		}, nil
	}

	s.metrics.InvoiceSubmissions.WithLabelValues(metrics.ResultApproved).Inc()

	slog.InfoContext(ctx, "invoice approved", "invoice_id", saved.ID)

	return entity.InvoiceCreationResult{
		Successful: true,
		Message:    entity.MsgInvoiceApproved,
		Invoice:    saved,
	}, nil
}

// ValidateInvoice checks the bill number for an approved duplicate first and the
// user's approved spend limit second. The limit is not evaluated for a duplicate.
func (s *Service) ValidateInvoice(ctx context.Context, inv entity.Invoice, userID uuid.UUID) (entity.Verdict, error) {
	exists, err := s.billNoExists(ctx, inv.BillNo)
	if err != nil {
		return entity.Verdict{}, err
	}

	if exists {
		return entity.Rejected(entity.MsgInvoiceBillNoExists), nil
	}

	approvedTotal, err := s.ApprovedTotal(ctx, userID)
	if err != nil {
		return entity.Verdict{}, err
	}

	if approvedTotal.Add(inv.Amount).GreaterThan(s.cfg.LimitPerUser) {
		return entity.Rejected(fmt.Sprintf(
			entity.MsgInvoiceLimitExceeded,
			approvedTotal.String(),
			inv.Amount.String(),
			s.cfg.LimitPerUser.String(),
		)), nil
	}

	return entity.Approved(), nil
}

func (s *Service) billNoExists(ctx context.Context, billNo string) (bool, error) {
	invoices, err := s.repo.InvoicesByBillNo(ctx, billNo, true)
	if err != nil {
		return false, fmt.Errorf("find approved invoices by bill no: %w", err)
	}

	return len(invoices) > 0, nil
}

// ApprovedTotal returns the sum of the user's approved invoices, zero when there are none.
func (s *Service) ApprovedTotal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	total, err := s.repo.InvoiceAmountTotal(ctx, &userID, lo.ToPtr(true))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum approved invoices of user %s: %w", userID, err)
	}

	return total, nil
}

// RefreshSpendMetrics publishes the approved amount of all users.
func (s *Service) RefreshSpendMetrics(ctx context.Context) error {
	total, err := s.repo.InvoiceAmountTotal(ctx, nil, lo.ToPtr(true))
	if err != nil {
		return fmt.Errorf("sum approved invoices: %w", err)
	}

	s.metrics.ApprovedAmount.Set(total.InexactFloat64())

	return nil
}

func (s *Service) Invoice(ctx context.Context, id uuid.UUID) (entity.Invoice, error) {
	inv, err := s.repo.Invoice(ctx, id)
	if err != nil {
		return entity.Invoice{}, fmt.Errorf("get invoice %s: %w", id, err)
	}

	return inv, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteInvoice(ctx, id)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}

	return nil
}

func (s *Service) Invoices(
	ctx context.Context,
	ownerID uuid.UUID,
	f entity.InvoiceFilter,
) (entity.Page[entity.Invoice], error) {
	invoices, total, err := s.repo.Invoices(ctx, ownerID, f)
	if err != nil {
		return entity.Page[entity.Invoice]{}, fmt.Errorf("list invoices: %w", err)
	}

	return entity.Page[entity.Invoice]{
		Content:       invoices,
		PageNumber:    f.Page,
		PageSize:      f.PageSize,
		TotalElements: total,
	}, nil
}
