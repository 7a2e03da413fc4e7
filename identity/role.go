package identity

import "github.com/google/uuid"

// Role is a standalone aggregate. Users embed a full copy of each role they
// belong to, so a role document is both the aggregate root for role lifecycle
// and the value embedded in user documents.
type Role struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name"`
}

// NewRole creates a role with a fresh identifier. The caller is responsible
// for supplying the normalized name before the role is persisted.
func NewRole(name string) *Role {
	return &Role{
		ID:   uuid.New(),
		Name: name,
	}
}
