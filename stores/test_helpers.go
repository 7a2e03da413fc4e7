package stores

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/docident/docident/identity"
	"github.com/google/uuid"
)

// fakeSession is an in-memory identity.Session used by the store unit
// tests. It mirrors the real session's behavior: writes queue until
// SaveChanges, the batch commits atomically, documents are stored as
// serialized snapshots, and the schema's uniqueness rules (normalized user
// name always, normalized email when non-empty) are enforced at commit.
type fakeSession struct {
	users map[uuid.UUID]*identity.User
	roles map[uuid.UUID]*identity.Role

	pending []fakeOp

	// failSave forces the next SaveChanges to fail with this error.
	failSave error
	// saveCalls counts commits, letting tests assert the attach-then-flush
	// batching behavior.
	saveCalls int
}

type fakeOp struct {
	user       *identity.User
	role       *identity.Role
	deleteUser *uuid.UUID
	deleteRole *uuid.UUID
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		users: make(map[uuid.UUID]*identity.User),
		roles: make(map[uuid.UUID]*identity.Role),
	}
}

func (s *fakeSession) StoreUser(user *identity.User) {
	s.pending = append(s.pending, fakeOp{user: user})
}

func (s *fakeSession) DeleteUser(id uuid.UUID) {
	s.pending = append(s.pending, fakeOp{deleteUser: &id})
}

func (s *fakeSession) StoreRole(role *identity.Role) {
	s.pending = append(s.pending, fakeOp{role: role})
}

func (s *fakeSession) DeleteRole(id uuid.UUID) {
	s.pending = append(s.pending, fakeOp{deleteRole: &id})
}

func (s *fakeSession) SaveChanges(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.saveCalls++
	if s.failSave != nil {
		err := s.failSave
		s.failSave = nil
		return err
	}

	// Stage the batch so a constraint violation leaves the store untouched.
	users := make(map[uuid.UUID]*identity.User, len(s.users))
	for id, u := range s.users {
		users[id] = u
	}
	roles := make(map[uuid.UUID]*identity.Role, len(s.roles))
	for id, r := range s.roles {
		roles[id] = r
	}

	for _, op := range s.pending {
		switch {
		case op.user != nil:
			for id, existing := range users {
				if id == op.user.ID {
					continue
				}
				if existing.NormalizedUserName == op.user.NormalizedUserName {
					return identity.ErrDuplicateUserName
				}
				if op.user.NormalizedEmail != "" &&
					existing.NormalizedEmail == op.user.NormalizedEmail {
					return identity.ErrDuplicateEmail
				}
			}
			users[op.user.ID] = copyUser(op.user)
		case op.deleteUser != nil:
			delete(users, *op.deleteUser)
		case op.role != nil:
			for id, existing := range roles {
				if id != op.role.ID && existing.NormalizedName == op.role.NormalizedName {
					return identity.ErrConflict
				}
			}
			roles[op.role.ID] = copyRole(op.role)
		case op.deleteRole != nil:
			delete(roles, *op.deleteRole)
		}
	}

	s.users = users
	s.roles = roles
	s.pending = nil
	return nil
}

func (s *fakeSession) LoadUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return copyUser(user), nil
}

func (s *fakeSession) QueryUsers(ctx context.Context, filter identity.UserFilter) ([]*identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The real session rejects a filter with no predicate; callers are
	// expected to never hand one over.
	if filter.IsZero() {
		return nil, errors.New("user filter has no predicate")
	}

	matched := make([]*identity.User, 0)
	for _, user := range s.users {
		if matchesFilter(user, filter) {
			matched = append(matched, copyUser(user))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return matched, nil
}

func (s *fakeSession) LoadRole(ctx context.Context, id uuid.UUID) (*identity.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	role, ok := s.roles[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return copyRole(role), nil
}

func (s *fakeSession) FindRoleByNormalizedName(ctx context.Context, name string) (*identity.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, role := range s.roles {
		if role.NormalizedName == name {
			return copyRole(role), nil
		}
	}
	return nil, identity.ErrNotFound
}

func matchesFilter(u *identity.User, f identity.UserFilter) bool {
	switch {
	case f.NormalizedUserName != "":
		return u.NormalizedUserName == f.NormalizedUserName
	case f.NormalizedEmail != "":
		return u.NormalizedEmail == f.NormalizedEmail
	case f.Login != nil:
		for _, l := range u.Logins {
			if l.Matches(f.Login.Provider, f.Login.Key) {
				return true
			}
		}
		return false
	case f.Claim != nil:
		for _, c := range u.Claims {
			if c.Matches(*f.Claim) {
				return true
			}
		}
		return false
	case f.NormalizedRoleName != "":
		return u.HasRole(f.NormalizedRoleName)
	}
	return false
}

// copyUser snapshots the aggregate the way the real session does: through
// serialization, so the stored document never aliases the caller's value.
func copyUser(u *identity.User) *identity.User {
	data, err := json.Marshal(u)
	if err != nil {
		panic(err)
	}
	var out identity.User
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

func copyRole(r *identity.Role) *identity.Role {
	clone := *r
	return &clone
}
