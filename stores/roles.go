package stores

import (
	"context"
	"log/slog"

	"github.com/docident/docident/identity"
	"github.com/google/uuid"
)

// Roles is the role store adapter, a stateless façade over the session
// supplied at construction.
type Roles struct {
	sess   identity.Session
	logger *slog.Logger
}

func NewRoles(sess identity.Session, log *slog.Logger) *Roles {
	if log == nil {
		log = slog.Default()
	}
	return &Roles{sess: sess, logger: log}
}

func (s *Roles) Create(ctx context.Context, role *identity.Role) error {
	s.sess.StoreRole(role)
	if err := s.sess.SaveChanges(ctx); err != nil {
		return identity.NewStoreError(classifyCode(err), "failed to create role", err)
	}

	s.logger.Debug("role created", slog.String("role_id", role.ID.String()))
	return nil
}

func (s *Roles) Update(ctx context.Context, role *identity.Role) error {
	s.sess.StoreRole(role)
	if err := s.sess.SaveChanges(ctx); err != nil {
		return identity.NewStoreError(classifyCode(err), "failed to update role", err)
	}

	s.logger.Debug("role updated", slog.String("role_id", role.ID.String()))
	return nil
}

// Delete removes the role by identifier. Deleting an absent role succeeds;
// only a real store failure is reported.
func (s *Roles) Delete(ctx context.Context, role *identity.Role) error {
	s.sess.DeleteRole(role.ID)
	if err := s.sess.SaveChanges(ctx); err != nil {
		return identity.NewStoreError(classifyCode(err), "failed to delete role", err)
	}

	s.logger.Debug("role deleted", slog.String("role_id", role.ID.String()))
	return nil
}

// FindByID resolves a role by its string identifier; malformed identifiers
// are not-found, matching the user store contract.
func (s *Roles) FindByID(ctx context.Context, id string) (*identity.Role, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, identity.ErrNotFound
	}
	return s.sess.LoadRole(ctx, parsed)
}

func (s *Roles) FindByName(ctx context.Context, normalizedName string) (*identity.Role, error) {
	return s.sess.FindRoleByNormalizedName(ctx, normalizedName)
}

func (s *Roles) RoleID(role *identity.Role) string { return role.ID.String() }

func (s *Roles) RoleName(role *identity.Role) string { return role.Name }

func (s *Roles) SetRoleName(role *identity.Role, name string) {
	role.Name = name
}

func (s *Roles) NormalizedRoleName(role *identity.Role) string {
	return role.NormalizedName
}

func (s *Roles) SetNormalizedRoleName(role *identity.Role, normalizedName string) {
	role.NormalizedName = normalizedName
}
