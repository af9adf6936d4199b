package models

import (
	"context"

	"github.com/google/uuid"
)

// Identity is a verified caller. A nil *Identity is an unauthenticated caller.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   UserRole  `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

func NewIdentity(u *User) *Identity {
	return &Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

type identityKey struct{}

// ContextWithIdentity attaches the resolved caller to ctx. A nil identity
// is stored as an unauthenticated caller.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller, or nil when unauthenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
