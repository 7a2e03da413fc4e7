// Package docident persists identity-framework users and roles as document
// aggregates. Each user document embeds its claims, logins, tokens, recovery
// codes, and role copies; the capability stores in package stores translate
// framework operations into loads, nested-field queries, and batched writes
// against the document session in package docstore.
package docident

import (
	"context"
	"log/slog"

	"github.com/docident/docident/config"
	"github.com/docident/docident/docstore"
	"github.com/docident/docident/identity"
	"github.com/docident/docident/stores"
)

// Open connects to the document store and ensures the identity schema,
// returning the DB that sessions are opened on.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*docstore.DB, error) {
	db, err := docstore.NewConnection(&cfg.Database, log)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewUserStore builds a user store over a session. Use one session and one
// store per logical operation or request.
func NewUserStore(sess identity.Session, log *slog.Logger) *stores.Users {
	return stores.NewUsers(sess, log)
}

// NewRoleStore builds a role store over a session.
func NewRoleStore(sess identity.Session, log *slog.Logger) *stores.Roles {
	return stores.NewRoles(sess, log)
}
