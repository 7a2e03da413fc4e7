package stores

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/docident/docident/identity"
	pkglogger "github.com/docident/docident/pkg/logger"
	"github.com/google/uuid"
)

// Users is the user store adapter. It is a stateless façade over the session
// supplied at construction; open one session (and one Users) per logical
// operation or request.
type Users struct {
	sess   identity.Session
	logger *slog.Logger
}

func NewUsers(sess identity.Session, log *slog.Logger) *Users {
	if log == nil {
		log = slog.Default()
	}
	return &Users{sess: sess, logger: log}
}

// classifyCode maps a store failure onto the machine-readable code carried
// by the structured result.
func classifyCode(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return identity.CodeCanceled
	case errors.Is(err, identity.ErrDuplicateUserName):
		return identity.CodeDuplicateUserName
	case errors.Is(err, identity.ErrDuplicateEmail):
		return identity.CodeDuplicateEmail
	case errors.Is(err, identity.ErrConcurrency):
		return identity.CodeConcurrency
	case errors.Is(err, identity.ErrConflict):
		return identity.CodeConflict
	default:
		return identity.CodeStorageFailure
	}
}

// Create persists a new user aggregate, translating any store failure into
// a structured result instead of letting it escape raw.
func (s *Users) Create(ctx context.Context, user *identity.User) error {
	s.sess.StoreUser(user)
	if err := s.sess.SaveChanges(ctx); err != nil {
		return identity.NewStoreError(classifyCode(err), "failed to create user", err)
	}

	s.logger.Debug("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// Update re-persists the aggregate, committing every in-memory edit batched
// since it was loaded.
func (s *Users) Update(ctx context.Context, user *identity.User) error {
	s.sess.StoreUser(user)
	if err := s.sess.SaveChanges(ctx); err != nil {
		return identity.NewStoreError(classifyCode(err), "failed to update user", err)
	}

	s.logger.Debug("user updated", slog.String("user_id", user.ID.String()))
	return nil
}

// Delete removes the aggregate by identifier. A user that is already gone
// still deletes successfully; only a real store failure is reported.
func (s *Users) Delete(ctx context.Context, user *identity.User) error {
	s.sess.DeleteUser(user.ID)
	if err := s.sess.SaveChanges(ctx); err != nil {
		return identity.NewStoreError(classifyCode(err), "failed to delete user", err)
	}

	s.logger.Debug("user deleted", slog.String("user_id", user.ID.String()))
	return nil
}

// FindByID resolves a user by its string identifier. The framework probes
// with identifiers from cookies and tokens, so a malformed identifier is a
// not-found, never a parse error.
func (s *Users) FindByID(ctx context.Context, id string) (*identity.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, identity.ErrNotFound
	}
	return s.sess.LoadUser(ctx, parsed)
}

func (s *Users) FindByName(ctx context.Context, normalizedUserName string) (*identity.User, error) {
	// Every stored user carries a non-empty normalized name, so an empty
	// lookup key is a not-found, not a query.
	if normalizedUserName == "" {
		return nil, identity.ErrNotFound
	}
	return s.findOne(ctx, identity.UserFilter{NormalizedUserName: normalizedUserName})
}

func (s *Users) UserID(user *identity.User) string { return user.ID.String() }

func (s *Users) UserName(user *identity.User) string { return user.UserName }

func (s *Users) SetUserName(user *identity.User, userName string) {
	user.UserName = userName
}

func (s *Users) NormalizedUserName(user *identity.User) string {
	return user.NormalizedUserName
}

func (s *Users) SetNormalizedUserName(user *identity.User, normalizedName string) {
	user.NormalizedUserName = normalizedName
}

func (s *Users) Claims(user *identity.User) []identity.Claim { return user.GetClaims() }

func (s *Users) AddClaims(user *identity.User, claims ...identity.Claim) {
	user.AddClaims(claims...)
}

func (s *Users) ReplaceClaim(user *identity.User, old, new identity.Claim) {
	user.ReplaceClaim(old, new)
}

func (s *Users) RemoveClaims(user *identity.User, claims ...identity.Claim) {
	user.RemoveClaims(claims...)
}

// FindUsersByClaim queries into the embedded claim lists across all users.
func (s *Users) FindUsersByClaim(ctx context.Context, claim identity.Claim) ([]*identity.User, error) {
	return s.sess.QueryUsers(ctx, identity.UserFilter{Claim: &claim})
}

func (s *Users) AddLogin(user *identity.User, login identity.Login) {
	user.AddLogin(login)
}

func (s *Users) RemoveLogin(user *identity.User, provider, key string) {
	user.RemoveLogin(provider, key)
}

func (s *Users) Logins(user *identity.User) []identity.Login { return user.GetLogins() }

// FindByLogin resolves the user linked to the external (provider, key) pair.
func (s *Users) FindByLogin(ctx context.Context, provider, key string) (*identity.User, error) {
	return s.findOne(ctx, identity.UserFilter{
		Login: &identity.Login{Provider: provider, Key: key},
	})
}

// AddToRole embeds the role resolved by normalized name. A name that does
// not resolve is a hard failure: silently skipping it would hide a broken
// reference from the caller.
func (s *Users) AddToRole(ctx context.Context, user *identity.User, normalizedRoleName string) error {
	role, err := s.sess.FindRoleByNormalizedName(ctx, normalizedRoleName)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fmt.Errorf("%q: %w", normalizedRoleName, identity.ErrRoleNotFound)
		}
		return err
	}

	user.AddRole(*role)
	return nil
}

func (s *Users) RemoveFromRole(user *identity.User, normalizedRoleName string) {
	user.RemoveRole(normalizedRoleName)
}

func (s *Users) Roles(user *identity.User) []string { return user.RoleNames() }

func (s *Users) IsInRole(user *identity.User, normalizedRoleName string) bool {
	return user.HasRole(normalizedRoleName)
}

func (s *Users) UsersInRole(ctx context.Context, normalizedRoleName string) ([]*identity.User, error) {
	if normalizedRoleName == "" {
		return []*identity.User{}, nil
	}
	return s.sess.QueryUsers(ctx, identity.UserFilter{NormalizedRoleName: normalizedRoleName})
}

func (s *Users) PasswordHash(user *identity.User) string { return user.PasswordHash }

func (s *Users) SetPasswordHash(user *identity.User, hash string) {
	user.PasswordHash = hash
}

func (s *Users) HasPassword(user *identity.User) bool { return user.PasswordHash != "" }

func (s *Users) SecurityStamp(user *identity.User) string { return user.SecurityStamp }

func (s *Users) SetSecurityStamp(user *identity.User, stamp string) {
	user.SecurityStamp = stamp
}

func (s *Users) Email(user *identity.User) string { return user.Email }

func (s *Users) SetEmail(user *identity.User, email string) {
	user.Email = email
}

func (s *Users) EmailConfirmed(user *identity.User) bool { return user.EmailConfirmed }

func (s *Users) SetEmailConfirmed(user *identity.User, confirmed bool) {
	user.EmailConfirmed = confirmed
}

func (s *Users) NormalizedEmail(user *identity.User) string { return user.NormalizedEmail }

func (s *Users) SetNormalizedEmail(user *identity.User, normalizedEmail string) {
	user.NormalizedEmail = normalizedEmail
}

// FindByEmail resolves a user by exact normalized email. The schema enforces
// uniqueness on non-empty normalized emails, so at most one user can match.
func (s *Users) FindByEmail(ctx context.Context, normalizedEmail string) (*identity.User, error) {
	// Users without an email store it as the empty string; that is an
	// absent value, not a matchable one.
	if normalizedEmail == "" {
		return nil, identity.ErrNotFound
	}
	s.logger.Debug("email lookup", slog.String("email", pkglogger.SanitizedEmail(normalizedEmail)))
	return s.findOne(ctx, identity.UserFilter{NormalizedEmail: normalizedEmail})
}

func (s *Users) PhoneNumber(user *identity.User) string { return user.PhoneNumber }

func (s *Users) SetPhoneNumber(user *identity.User, phoneNumber string) {
	user.PhoneNumber = phoneNumber
}

func (s *Users) PhoneNumberConfirmed(user *identity.User) bool {
	return user.PhoneNumberConfirmed
}

func (s *Users) SetPhoneNumberConfirmed(user *identity.User, confirmed bool) {
	user.PhoneNumberConfirmed = confirmed
}

func (s *Users) TwoFactorEnabled(user *identity.User) bool { return user.TwoFactorEnabled }

func (s *Users) SetTwoFactorEnabled(user *identity.User, enabled bool) {
	user.TwoFactorEnabled = enabled
}

func (s *Users) LockoutEnd(user *identity.User) *time.Time { return user.LockoutEnd }

func (s *Users) SetLockoutEnd(user *identity.User, end *time.Time) {
	user.LockoutEnd = end
}

func (s *Users) LockoutEnabled(user *identity.User) bool { return user.LockoutEnabled }

func (s *Users) SetLockoutEnabled(user *identity.User, enabled bool) {
	user.LockoutEnabled = enabled
}

func (s *Users) IncrementAccessFailedCount(user *identity.User) int {
	user.AccessFailedCount++
	return user.AccessFailedCount
}

func (s *Users) ResetAccessFailedCount(user *identity.User) {
	user.AccessFailedCount = 0
}

func (s *Users) AccessFailedCount(user *identity.User) int {
	return user.AccessFailedCount
}

func (s *Users) ReplaceRecoveryCodes(user *identity.User, codes []string) {
	user.ReplaceRecoveryCodes(codes)
}

func (s *Users) RedeemRecoveryCode(user *identity.User, code string) bool {
	return user.RedeemRecoveryCode(code)
}

func (s *Users) CountRecoveryCodes(user *identity.User) int {
	return user.CountRecoveryCodes()
}

func (s *Users) SetToken(user *identity.User, provider, name, value string) {
	user.SetToken(provider, name, value)
}

func (s *Users) Token(user *identity.User, provider, name string) (string, bool) {
	return user.GetToken(provider, name)
}

func (s *Users) RemoveToken(user *identity.User, provider, name string) {
	user.RemoveToken(provider, name)
}

// findOne runs a filter expected to match at most one user.
func (s *Users) findOne(ctx context.Context, filter identity.UserFilter) (*identity.User, error) {
	users, err := s.sess.QueryUsers(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, identity.ErrNotFound
	}
	return users[0], nil
}
