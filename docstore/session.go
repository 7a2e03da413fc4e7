package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docident/docident/identity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Session is the postgres-backed unit of work. Store and Delete calls queue
// pending writes in order; SaveChanges serializes the touched aggregates and
// commits the whole batch in a single transaction. Reads bypass the queue
// and hit the store directly.
type Session struct {
	db      *DB
	pending []operation
}

var _ identity.Session = (*Session)(nil)

type operation struct {
	table string
	id    uuid.UUID
	doc   any // nil marks a delete
}

func (s *Session) StoreUser(user *identity.User) {
	s.pending = append(s.pending, operation{table: usersTable, id: user.ID, doc: user})
}

func (s *Session) DeleteUser(id uuid.UUID) {
	s.pending = append(s.pending, operation{table: usersTable, id: id})
}

func (s *Session) StoreRole(role *identity.Role) {
	s.pending = append(s.pending, operation{table: rolesTable, id: role.ID, doc: role})
}

func (s *Session) DeleteRole(id uuid.UUID) {
	s.pending = append(s.pending, operation{table: rolesTable, id: id})
}

// SaveChanges flushes the pending writes in enqueue order inside one
// transaction. Aggregates are serialized at save time, so edits made after
// StoreUser but before SaveChanges are included. On success the queue is
// cleared; on failure it is kept so the caller can retry the session.
func (s *Session) SaveChanges(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, op := range s.pending {
			if op.doc == nil {
				// Deleting an absent document is not an error.
				if _, err := tx.Exec(ctx,
					`DELETE FROM `+op.table+` WHERE id = $1`, op.id); err != nil {
					return err
				}
				continue
			}

			data, err := json.Marshal(op.doc)
			if err != nil {
				return fmt.Errorf("failed to serialize document: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO `+op.table+` (id, data) VALUES ($1, $2)
				 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
				op.id, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return MapError(err)
	}

	s.pending = s.pending[:0]
	return nil
}

func (s *Session) LoadUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var data []byte
	err := s.db.Pool.QueryRow(ctx,
		`SELECT data FROM `+usersTable+` WHERE id = $1`, id).Scan(&data)
	if err != nil {
		return nil, MapError(err)
	}

	var user identity.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user document: %w", err)
	}
	return &user, nil
}

func (s *Session) QueryUsers(ctx context.Context, filter identity.UserFilter) ([]*identity.User, error) {
	query, args, err := buildUserQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	users := make([]*identity.User, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, MapError(err)
		}
		var user identity.User
		if err := json.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("failed to decode user document: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return users, nil
}

func (s *Session) LoadRole(ctx context.Context, id uuid.UUID) (*identity.Role, error) {
	return s.roleQuery(ctx,
		`SELECT data FROM `+rolesTable+` WHERE id = $1`, id)
}

func (s *Session) FindRoleByNormalizedName(ctx context.Context, name string) (*identity.Role, error) {
	return s.roleQuery(ctx,
		`SELECT data FROM `+rolesTable+` WHERE data->>'normalized_name' = $1`, name)
}

func (s *Session) roleQuery(ctx context.Context, query string, arg any) (*identity.Role, error) {
	var data []byte
	if err := s.db.Pool.QueryRow(ctx, query, arg).Scan(&data); err != nil {
		return nil, MapError(err)
	}

	var role identity.Role
	if err := json.Unmarshal(data, &role); err != nil {
		return nil, fmt.Errorf("failed to decode role document: %w", err)
	}
	return &role, nil
}
