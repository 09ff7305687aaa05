package entity

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

type CtxKey int

const (
	CtxKeyUserID CtxKey = iota
)

func CtxWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}

// UserIDFromCtx returns authenticated user id from context or ErrUnauthenticated if it is not found.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctx.Value(CtxKeyUserID).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, ErrUnauthenticated
	}

	return userID, nil
}
