package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/samandr77/microservices/backoffice/internal/entity"
)

func newInvoice(owner uuid.UUID, billNo, amount string, approved bool) entity.Invoice {
	return entity.Invoice{
		FirstName:   "John",
		LastName:    "Smith",
		Email:       "john.smith@example.com",
		Amount:      decimal.RequireFromString(amount),
		ProductCode: "PRD001",
		BillNo:      billNo,
		IsApproved:  approved,
		CreatedBy:   owner,
	}
}

func TestRepository_CreateInvoice(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()

	inv := newInvoice(uuid.Must(uuid.NewV4()), randomBillNo(), "120.50", true)

	created, err := repo.CreateInvoice(ctx, inv)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	got, err := repo.Invoice(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, inv.BillNo, got.BillNo)
	require.Equal(t, inv.CreatedBy, got.CreatedBy)
	require.True(t, got.IsApproved)
	require.True(t, inv.Amount.Equal(got.Amount))
	require.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestRepository_Invoice_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newRepository(t).Invoice(context.Background(), uuid.Must(uuid.NewV4()))
	require.ErrorIs(t, err, entity.ErrNotFound)
}

func TestRepository_DeleteInvoice(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()

	created, err := repo.CreateInvoice(ctx, newInvoice(uuid.Must(uuid.NewV4()), randomBillNo(), "1", false))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteInvoice(ctx, created.ID))

	_, err = repo.Invoice(ctx, created.ID)
	require.ErrorIs(t, err, entity.ErrNotFound)

	// Deleting again is a no-op.
	require.NoError(t, repo.DeleteInvoice(ctx, created.ID))
}

func TestRepository_InvoicesByBillNo(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()
	billNo := randomBillNo()

	res, err := repo.InvoicesByBillNo(ctx, billNo, true)
	require.NoError(t, err)
	require.Empty(t, res)

	// Only an unapproved duplicate: not visible for the approved lookup.
	_, err = repo.CreateInvoice(ctx, newInvoice(uuid.Must(uuid.NewV4()), billNo, "10", false))
	require.NoError(t, err)

	res, err = repo.InvoicesByBillNo(ctx, billNo, true)
	require.NoError(t, err)
	require.Empty(t, res)

	approved, err := repo.CreateInvoice(ctx, newInvoice(uuid.Must(uuid.NewV4()), billNo, "10", true))
	require.NoError(t, err)

	res, err = repo.InvoicesByBillNo(ctx, billNo, true)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, approved.ID, res[0].ID)

	res, err = repo.InvoicesByBillNo(ctx, billNo, false)
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func TestRepository_InvoiceAmountTotal(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()

	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	total, err := repo.InvoiceAmountTotal(ctx, &owner, lo.ToPtr(true))
	require.NoError(t, err)
	require.True(t, total.IsZero())

	for _, inv := range []entity.Invoice{
		newInvoice(owner, randomBillNo(), "80", true),
		newInvoice(owner, randomBillNo(), "0.5", true),
		newInvoice(owner, randomBillNo(), "1000", false),
		newInvoice(other, randomBillNo(), "70", true),
	} {
		_, err = repo.CreateInvoice(ctx, inv)
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		userID   *uuid.UUID
		approved *bool
		expected string
	}{
		{"approved of owner", &owner, lo.ToPtr(true), "80.5"},
		{"rejected of owner", &owner, lo.ToPtr(false), "1000"},
		{"all of owner", &owner, nil, "1080.5"},
		{"approved of other", &other, lo.ToPtr(true), "70"},
		{"rejected of other", &other, lo.ToPtr(false), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.InvoiceAmountTotal(ctx, tt.userID, tt.approved)
			require.NoError(t, err)
			require.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}

	t.Run("without owner filter", func(t *testing.T) {
		got, err := repo.InvoiceAmountTotal(ctx, nil, lo.ToPtr(true))
		require.NoError(t, err)
		require.True(t, got.GreaterThanOrEqual(decimal.RequireFromString("150.5")), "got %s", got)
	})
}

func TestRepository_Invoices(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV4())

	for i := range 5 {
		_, err := repo.CreateInvoice(ctx, newInvoice(owner, randomBillNo(), "1", i%2 == 0))
		require.NoError(t, err)
	}

	_, err := repo.CreateInvoice(ctx, newInvoice(uuid.Must(uuid.NewV4()), randomBillNo(), "1", true))
	require.NoError(t, err)

	invoices, total, err := repo.Invoices(ctx, owner, entity.InvoiceFilter{Page: 0, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, invoices, 2)
	require.False(t, invoices[0].CreatedAt.Before(invoices[1].CreatedAt))

	invoices, total, err = repo.Invoices(ctx, owner, entity.InvoiceFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, invoices, 1)

	invoices, total, err = repo.Invoices(ctx, owner, entity.InvoiceFilter{IsApproved: lo.ToPtr(true), PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 3, total)

	for _, inv := range invoices {
		require.True(t, inv.IsApproved)
		require.Equal(t, owner, inv.CreatedBy)
	}
}

func TestRepository_WithinTx_Rollback(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()
	billNo := randomBillNo()

	err := repo.WithinTx(ctx, func(ctx context.Context) error {
		_, err := repo.CreateInvoice(ctx, newInvoice(uuid.Must(uuid.NewV4()), billNo, "5", true))
		require.NoError(t, err)

		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	res, err := repo.InvoicesByBillNo(ctx, billNo, true)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestRepository_LockSubmission(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()

	require.Error(t, repo.LockSubmission(ctx, uuid.Must(uuid.NewV4()), randomBillNo()))

	owner := uuid.Must(uuid.NewV4())
	billNo := randomBillNo()

	// Concurrent submissions of the same bill: only the first one sees no approved duplicate.
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		duplicates int
	)

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := repo.WithinTx(ctx, func(ctx context.Context) error {
				err := repo.LockSubmission(ctx, owner, billNo)
				if err != nil {
					return err
				}

				existing, err := repo.InvoicesByBillNo(ctx, billNo, true)
				if err != nil {
					return err
				}

				if len(existing) > 0 {
					mu.Lock()
					duplicates++
					mu.Unlock()

					return nil
				}

				_, err = repo.CreateInvoice(ctx, newInvoice(owner, billNo, "1", true))

				return err
			})
			assertNoError(t, err)
		}()
	}

	wg.Wait()

	require.Equal(t, 3, duplicates)

	res, err := repo.InvoicesByBillNo(ctx, billNo, true)
	require.NoError(t, err)
	require.Len(t, res, 1)
}

func assertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Errorf("unexpected error: %s", err)
	}
}

