// Package auth holds the authentication primitives of the server: the
// request Identity, the argon2id password hasher and the JWT token service.
package auth

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/medconb/internal/common"
)

// Identity is who the caller of a request is. The zero value is the
// anonymous caller. Scopes are fixed at construction.
type Identity struct {
	subject string
	name    string
	scopes  []string
}

// Anonymous returns the identity of a caller without valid credentials.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of a caller that proved ownership of
// subject. It always carries the "authenticated" scope.
func Authenticated(subject, name string) Identity {
	return Identity{
		subject: subject,
		name:    name,
		scopes:  []string{common.ScopeAuthenticated},
	}
}

func (i Identity) Subject() string { return i.subject }
func (i Identity) Name() string    { return i.name }

// Scopes returns a copy of the scope set.
func (i Identity) Scopes() []string {
	return slices.Clone(i.scopes)
}

func (i Identity) HasScope(scope string) bool {
	return slices.Contains(i.scopes, scope)
}

// IsAuthenticated is shorthand for HasScope("authenticated").
func (i Identity) IsAuthenticated() bool {
	return i.HasScope(common.ScopeAuthenticated)
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity. ok is false
// when the request never went through authentication.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
