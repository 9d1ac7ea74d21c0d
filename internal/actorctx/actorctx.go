// Package actorctx carries the authenticated identity through a request's
// context. The session middleware writes it once; everything downstream reads.
package actorctx

import (
	"context"
)

type ctxKey struct{}

type Identity struct {
	UserID   string
	Username string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)

	return id, ok && id.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)

	return id.UserID, ok
}
