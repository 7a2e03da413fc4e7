// Package stores implements the capability contracts an identity framework
// persists users and roles through. Each interface is one narrow capability;
// a framework takes only the capabilities it needs, and the concrete Users
// and Roles types satisfy all of them.
//
// Collection and field operations edit the in-memory aggregate only. The
// lifecycle operations (Create, Update, Delete) are the only calls that
// round-trip to the document store: batch edits, then flush once with
// Update.
package stores

import (
	"context"
	"time"

	"github.com/docident/docident/identity"
)

// UserStore is the core user lifecycle capability.
type UserStore interface {
	// Create persists a new user aggregate. On failure the returned error
	// is a *identity.StoreError carrying a machine-readable code.
	Create(ctx context.Context, user *identity.User) error
	// Update re-persists the aggregate, including every embedded edit made
	// since it was loaded.
	Update(ctx context.Context, user *identity.User) error
	// Delete removes the aggregate by identifier. Deleting a user that is
	// already gone succeeds.
	Delete(ctx context.Context, user *identity.User) error
	// FindByID resolves a user by its string identifier. A malformed
	// identifier yields identity.ErrNotFound, never a parse error.
	FindByID(ctx context.Context, id string) (*identity.User, error)
	// FindByName resolves a user by exact normalized user name.
	FindByName(ctx context.Context, normalizedUserName string) (*identity.User, error)
	UserID(user *identity.User) string
	UserName(user *identity.User) string
	SetUserName(user *identity.User, userName string)
	NormalizedUserName(user *identity.User) string
	SetNormalizedUserName(user *identity.User, normalizedName string)
}

// UserClaimStore manages the claims embedded in a user document.
type UserClaimStore interface {
	// Claims returns a snapshot of the user's claims at call time.
	Claims(user *identity.User) []identity.Claim
	AddClaims(user *identity.User, claims ...identity.Claim)
	ReplaceClaim(user *identity.User, old, new identity.Claim)
	RemoveClaims(user *identity.User, claims ...identity.Claim)
	// FindUsersByClaim returns every user holding a claim matching the
	// given (type, value).
	FindUsersByClaim(ctx context.Context, claim identity.Claim) ([]*identity.User, error)
}

// UserLoginStore manages external identity provider linkage.
type UserLoginStore interface {
	AddLogin(user *identity.User, login identity.Login)
	RemoveLogin(user *identity.User, provider, key string)
	Logins(user *identity.User) []identity.Login
	// FindByLogin resolves the single user linked to (provider, key).
	FindByLogin(ctx context.Context, provider, key string) (*identity.User, error)
}

// UserRoleStore manages role membership.
type UserRoleStore interface {
	// AddToRole resolves the role by normalized name and embeds it into
	// the user. An unresolved name fails with identity.ErrRoleNotFound and
	// leaves the user untouched.
	AddToRole(ctx context.Context, user *identity.User, normalizedRoleName string) error
	RemoveFromRole(user *identity.User, normalizedRoleName string)
	Roles(user *identity.User) []string
	IsInRole(user *identity.User, normalizedRoleName string) bool
	UsersInRole(ctx context.Context, normalizedRoleName string) ([]*identity.User, error)
}

// UserPasswordStore holds the credential hash computed by the framework.
type UserPasswordStore interface {
	PasswordHash(user *identity.User) string
	SetPasswordHash(user *identity.User, hash string)
	HasPassword(user *identity.User) bool
}

// UserSecurityStampStore tracks the stamp invalidated on credential changes.
type UserSecurityStampStore interface {
	SecurityStamp(user *identity.User) string
	SetSecurityStamp(user *identity.User, stamp string)
}

// UserEmailStore manages the email fields and email-based lookup.
type UserEmailStore interface {
	Email(user *identity.User) string
	SetEmail(user *identity.User, email string)
	EmailConfirmed(user *identity.User) bool
	SetEmailConfirmed(user *identity.User, confirmed bool)
	NormalizedEmail(user *identity.User) string
	SetNormalizedEmail(user *identity.User, normalizedEmail string)
	FindByEmail(ctx context.Context, normalizedEmail string) (*identity.User, error)
}

// UserPhoneNumberStore manages the phone fields.
type UserPhoneNumberStore interface {
	PhoneNumber(user *identity.User) string
	SetPhoneNumber(user *identity.User, phoneNumber string)
	PhoneNumberConfirmed(user *identity.User) bool
	SetPhoneNumberConfirmed(user *identity.User, confirmed bool)
}

// UserTwoFactorStore manages the two-factor flag.
type UserTwoFactorStore interface {
	TwoFactorEnabled(user *identity.User) bool
	SetTwoFactorEnabled(user *identity.User, enabled bool)
}

// UserLockoutStore manages lockout state and the failed-access counter.
type UserLockoutStore interface {
	LockoutEnd(user *identity.User) *time.Time
	SetLockoutEnd(user *identity.User, end *time.Time)
	LockoutEnabled(user *identity.User) bool
	SetLockoutEnabled(user *identity.User, enabled bool)
	// IncrementAccessFailedCount returns the counter after incrementing.
	IncrementAccessFailedCount(user *identity.User) int
	ResetAccessFailedCount(user *identity.User)
	AccessFailedCount(user *identity.User) int
}

// UserRecoveryCodeStore manages single-use recovery codes.
type UserRecoveryCodeStore interface {
	ReplaceRecoveryCodes(user *identity.User, codes []string)
	// RedeemRecoveryCode consumes the code and reports whether it was
	// present.
	RedeemRecoveryCode(user *identity.User, code string) bool
	CountRecoveryCodes(user *identity.User) int
}

// UserAuthenticatorTokenStore manages provider-scoped secrets such as the
// authenticator key.
type UserAuthenticatorTokenStore interface {
	SetToken(user *identity.User, provider, name, value string)
	Token(user *identity.User, provider, name string) (string, bool)
	RemoveToken(user *identity.User, provider, name string)
}

// RoleStore is the role lifecycle capability.
type RoleStore interface {
	Create(ctx context.Context, role *identity.Role) error
	Update(ctx context.Context, role *identity.Role) error
	Delete(ctx context.Context, role *identity.Role) error
	FindByID(ctx context.Context, id string) (*identity.Role, error)
	FindByName(ctx context.Context, normalizedName string) (*identity.Role, error)
	RoleID(role *identity.Role) string
	RoleName(role *identity.Role) string
	SetRoleName(role *identity.Role, name string)
	NormalizedRoleName(role *identity.Role) string
	SetNormalizedRoleName(role *identity.Role, normalizedName string)
}

// Compile-time capability checks.
var (
	_ UserStore                   = (*Users)(nil)
	_ UserClaimStore              = (*Users)(nil)
	_ UserLoginStore              = (*Users)(nil)
	_ UserRoleStore               = (*Users)(nil)
	_ UserPasswordStore           = (*Users)(nil)
	_ UserSecurityStampStore      = (*Users)(nil)
	_ UserEmailStore              = (*Users)(nil)
	_ UserPhoneNumberStore        = (*Users)(nil)
	_ UserTwoFactorStore          = (*Users)(nil)
	_ UserLockoutStore            = (*Users)(nil)
	_ UserRecoveryCodeStore       = (*Users)(nil)
	_ UserAuthenticatorTokenStore = (*Users)(nil)
	_ RoleStore                   = (*Roles)(nil)
)
