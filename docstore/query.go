package docstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docident/docident/identity"
)

var errEmptyFilter = errors.New("docstore: user filter has no predicate")

// buildUserQuery translates a UserFilter into SQL over the jsonb document.
// Scalar lookups compare the extracted field; predicates over embedded
// collections use jsonb containment so postgres matches inside the nested
// arrays. Results are ordered by id so multi-row queries are deterministic.
func buildUserQuery(f identity.UserFilter) (string, []any, error) {
	const selectUsers = `SELECT data FROM ` + usersTable

	switch {
	case f.NormalizedUserName != "":
		return selectUsers + ` WHERE data->>'normalized_user_name' = $1`,
			[]any{f.NormalizedUserName}, nil

	case f.NormalizedEmail != "":
		return selectUsers + ` WHERE data->>'normalized_email' = $1 ORDER BY id`,
			[]any{f.NormalizedEmail}, nil

	case f.Login != nil:
		// Provider and key both participate in the match, even when empty;
		// only the display name is excluded.
		frag, err := containmentArg("logins", map[string]string{
			"login_provider": f.Login.Provider,
			"provider_key":   f.Login.Key,
		})
		if err != nil {
			return "", nil, err
		}
		return selectUsers + ` WHERE data @> $1 ORDER BY id`, []any{frag}, nil

	case f.Claim != nil:
		// Exact (type, value) match: an empty value constrains the match
		// to claims whose value is empty. Only the issuer is excluded.
		frag, err := containmentArg("claims", map[string]string{
			"claim_type":  f.Claim.Type,
			"claim_value": f.Claim.Value,
		})
		if err != nil {
			return "", nil, err
		}
		return selectUsers + ` WHERE data @> $1 ORDER BY id`, []any{frag}, nil

	case f.NormalizedRoleName != "":
		frag, err := containmentArg("roles", map[string]string{
			"normalized_name": f.NormalizedRoleName,
		})
		if err != nil {
			return "", nil, err
		}
		return selectUsers + ` WHERE data @> $1 ORDER BY id`, []any{frag}, nil
	}

	return "", nil, errEmptyFilter
}

// containmentArg builds the jsonb fragment {"field": [elem]} used with the
// @> operator. The caller lists exactly the fields that participate in the
// match; anything omitted (issuer, display name) is ignored by containment.
func containmentArg(field string, elem map[string]string) ([]byte, error) {
	frag, err := json.Marshal(map[string]any{field: []any{elem}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal containment predicate: %w", err)
	}
	return frag, nil
}
