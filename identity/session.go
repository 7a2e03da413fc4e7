package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserFilter selects users by a predicate over the document, including its
// nested collections. Exactly one field should be set per query; a zero
// filter matches nothing.
type UserFilter struct {
	// NormalizedUserName matches the unique normalized user name exactly.
	NormalizedUserName string
	// NormalizedEmail matches the normalized email exactly.
	NormalizedEmail string
	// Login matches users embedding a login with this (Provider, Key).
	// DisplayName is ignored.
	Login *Login
	// Claim matches users embedding a claim with this (Type, Value).
	// Issuer is ignored.
	Claim *Claim
	// NormalizedRoleName matches users embedding a role with this
	// normalized name.
	NormalizedRoleName string
}

// IsZero reports whether no predicate is set.
func (f UserFilter) IsZero() bool {
	return f.NormalizedUserName == "" && f.NormalizedEmail == "" &&
		f.Login == nil && f.Claim == nil && f.NormalizedRoleName == ""
}

// Session is the unit of work a document store supplies to the capability
// stores, one session per logical operation or request. Store and Delete
// calls enqueue pending writes; nothing reaches the store until SaveChanges
// commits the whole batch. Reads pass through immediately.
//
// Lookups return ErrNotFound when the document is absent. All methods taking
// a context must honor cancellation and abandon in-flight requests.
type Session interface {
	// StoreUser enqueues an upsert of the user document.
	StoreUser(user *User)
	// DeleteUser enqueues removal of the user document by identifier.
	// Deleting an absent document is not an error.
	DeleteUser(id uuid.UUID)
	// StoreRole enqueues an upsert of the role document.
	StoreRole(role *Role)
	// DeleteRole enqueues removal of the role document by identifier.
	DeleteRole(id uuid.UUID)
	// SaveChanges commits every pending write in order, atomically. On
	// success the pending queue is cleared; on failure it is preserved so
	// the caller can decide whether to retry the session.
	SaveChanges(ctx context.Context) error

	// LoadUser fetches a user aggregate by identifier.
	LoadUser(ctx context.Context, id uuid.UUID) (*User, error)
	// QueryUsers returns every user matching the filter predicate.
	QueryUsers(ctx context.Context, filter UserFilter) ([]*User, error)
	// LoadRole fetches a role aggregate by identifier.
	LoadRole(ctx context.Context, id uuid.UUID) (*Role, error)
	// FindRoleByNormalizedName fetches the role with the given normalized
	// name.
	FindRoleByNormalizedName(ctx context.Context, name string) (*Role, error)
}
