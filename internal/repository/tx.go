package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

type ctxKeyTx struct{}

// Advisory lock namespaces.
const (
	lockClassOwner int32 = iota + 1
	lockClassBillNo
)

var errNoTx = errors.New("no transaction in context")

// WithinTx runs fn in a transaction. Repository calls made with the ctx passed to fn
// join it. Nested calls reuse the outer transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(ctxKeyTx{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, ctxKeyTx{}, tx))
	})
}

// LockSubmission takes transaction scoped advisory locks on the owner and then on the bill number.
// Locks are released on commit or rollback.
func (r *Repository) LockSubmission(ctx context.Context, ownerID uuid.UUID, billNo string) error {
	tx, ok := ctx.Value(ctxKeyTx{}).(pgx.Tx)
	if !ok {
		return errNoTx
	}

	const q = `SELECT pg_advisory_xact_lock($1, hashtext($2))`

	_, err := tx.Exec(ctx, q, lockClassOwner, ownerID.String())
	if err != nil {
		return fmt.Errorf("lock owner: %w", err)
	}

	_, err = tx.Exec(ctx, q, lockClassBillNo, billNo)
	if err != nil {
		return fmt.Errorf("lock bill no: %w", err)
	}

	return nil
}
