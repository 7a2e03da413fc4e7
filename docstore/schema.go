package docstore

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	usersTable = "identity_users"
	rolesTable = "identity_roles"

	usersNameIndex  = "identity_users_normalized_user_name_key"
	usersEmailIndex = "identity_users_normalized_email_key"
	rolesNameIndex  = "identity_roles_normalized_name_key"
)

// Document tables hold one jsonb aggregate per row. Uniqueness lives in
// expression indexes over the normalized lookup fields; the email index is
// partial so users without an email never collide.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ` + usersTable + ` (
		id   uuid PRIMARY KEY,
		data jsonb NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + usersNameIndex + `
		ON ` + usersTable + ` ((data->>'normalized_user_name'))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + usersEmailIndex + `
		ON ` + usersTable + ` ((data->>'normalized_email'))
		WHERE data->>'normalized_email' IS NOT NULL AND data->>'normalized_email' <> ''`,
	`CREATE TABLE IF NOT EXISTS ` + rolesTable + ` (
		id   uuid PRIMARY KEY,
		data jsonb NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + rolesNameIndex + `
		ON ` + rolesTable + ` ((data->>'normalized_name'))`,
}

// EnsureSchema creates the document tables and uniqueness indexes if they do
// not exist yet. Safe to run on every startup.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply document schema: %w", err)
		}
	}

	db.logger.Info("document schema ensured",
		slog.String("users_table", usersTable),
		slog.String("roles_table", rolesTable),
	)
	return nil
}
