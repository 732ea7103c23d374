package services

import (
	"context"

	"github.com/google/uuid"
)

const (
	RoleUser     = "user"
	RoleBusiness = "business"
)

// Actor is the authenticated caller an operation runs on behalf of.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsBusiness() bool { return a.Role == RoleBusiness }

type ctxKey int

const actorKey ctxKey = 1

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok && a.UserID != uuid.Nil
}
