package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is the document aggregate: the root identity record plus every
// collection it owns. Claims, logins, tokens, recovery codes, and role
// copies live inside the document; cross-user lookups query into these
// nested fields rather than joining separate relations.
//
// Collection methods mutate the in-memory aggregate only. Nothing here
// touches the store; persistence happens when the caller passes the user
// through a store lifecycle operation (attach, edit, then flush once).
type User struct {
	ID                   uuid.UUID  `json:"id"`
	UserName             string     `json:"user_name"`
	NormalizedUserName   string     `json:"normalized_user_name"`
	Email                string     `json:"email,omitempty"`
	NormalizedEmail      string     `json:"normalized_email,omitempty"`
	EmailConfirmed       bool       `json:"email_confirmed"`
	PasswordHash         string     `json:"password_hash,omitempty"`
	SecurityStamp        string     `json:"security_stamp"`
	PhoneNumber          string     `json:"phone_number,omitempty"`
	PhoneNumberConfirmed bool       `json:"phone_number_confirmed"`
	TwoFactorEnabled     bool       `json:"two_factor_enabled"`
	LockoutEnd           *time.Time `json:"lockout_end,omitempty"`
	LockoutEnabled       bool       `json:"lockout_enabled"`
	AccessFailedCount    int        `json:"access_failed_count"`

	Claims        []Claim  `json:"claims"`
	Logins        []Login  `json:"logins"`
	Tokens        []Token  `json:"tokens"`
	RecoveryCodes []string `json:"recovery_codes"`
	Roles         []Role   `json:"roles"`
}

// NewUser creates a user aggregate with a fresh identifier, a fresh security
// stamp, and empty owned collections. Normalized forms are left for the
// caller to fill in; the framework computes them.
func NewUser(userName string) *User {
	return &User{
		ID:            uuid.New(),
		UserName:      userName,
		SecurityStamp: uuid.NewString(),
		Claims:        []Claim{},
		Logins:        []Login{},
		Tokens:        []Token{},
		RecoveryCodes: []string{},
		Roles:         []Role{},
	}
}

// GetClaims returns a snapshot copy of the user's claims. Later edits to the
// aggregate do not show through the returned slice.
func (u *User) GetClaims() []Claim {
	out := make([]Claim, len(u.Claims))
	copy(out, u.Claims)
	return out
}

// AddClaims appends the given claims. Duplicates are permitted; the identity
// framework treats the claim list as a bag, not a set.
func (u *User) AddClaims(claims ...Claim) {
	u.Claims = append(u.Claims, claims...)
}

// ReplaceClaim rewrites the type and value of every embedded claim matching
// old on (type, value). The issuer of a rewritten claim is preserved as
// originally recorded. When nothing matches this is a no-op.
func (u *User) ReplaceClaim(old, new Claim) {
	for i := range u.Claims {
		if u.Claims[i].Matches(old) {
			u.Claims[i].Type = new.Type
			u.Claims[i].Value = new.Value
		}
	}
}

// RemoveClaims removes every embedded claim matching any of the given claims
// on (type, value).
func (u *User) RemoveClaims(claims ...Claim) {
	kept := u.Claims[:0]
	for _, have := range u.Claims {
		matched := false
		for _, c := range claims {
			if have.Matches(c) {
				matched = true
				break
			}
		}
		if !matched {
			kept = append(kept, have)
		}
	}
	u.Claims = kept
}

// GetLogins returns a snapshot copy of the user's external logins.
func (u *User) GetLogins() []Login {
	out := make([]Login, len(u.Logins))
	copy(out, u.Logins)
	return out
}

// AddLogin links an external identity to the user.
func (u *User) AddLogin(login Login) {
	u.Logins = append(u.Logins, login)
}

// RemoveLogin unlinks the login with the exact (provider, key) pair.
func (u *User) RemoveLogin(provider, key string) {
	kept := u.Logins[:0]
	for _, l := range u.Logins {
		if !l.Matches(provider, key) {
			kept = append(kept, l)
		}
	}
	u.Logins = kept
}

// GetToken looks up the token value stored for (provider, name). The second
// return reports whether such a token exists.
func (u *User) GetToken(provider, name string) (string, bool) {
	for _, t := range u.Tokens {
		if t.Provider == provider && t.Name == name {
			return t.Value, true
		}
	}
	return "", false
}

// SetToken upserts the token for (provider, name): an existing entry has its
// value overwritten in place, otherwise a new entry is appended.
func (u *User) SetToken(provider, name, value string) {
	for i := range u.Tokens {
		if u.Tokens[i].Provider == provider && u.Tokens[i].Name == name {
			u.Tokens[i].Value = value
			return
		}
	}
	u.Tokens = append(u.Tokens, Token{Provider: provider, Name: name, Value: value})
}

// RemoveToken deletes the token for (provider, name) if present.
func (u *User) RemoveToken(provider, name string) {
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if !(t.Provider == provider && t.Name == name) {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
}

// ReplaceRecoveryCodes clears the recovery code list and repopulates it with
// a copy of codes.
func (u *User) ReplaceRecoveryCodes(codes []string) {
	u.RecoveryCodes = make([]string, len(codes))
	copy(u.RecoveryCodes, codes)
}

// RedeemRecoveryCode consumes code if it is present, returning true exactly
// when the code was present. Codes are single use: a second redemption of
// the same code returns false. Membership is tested by equality.
func (u *User) RedeemRecoveryCode(code string) bool {
	for i, c := range u.RecoveryCodes {
		if c == code {
			u.RecoveryCodes = append(u.RecoveryCodes[:i], u.RecoveryCodes[i+1:]...)
			return true
		}
	}
	return false
}

// CountRecoveryCodes returns how many unredeemed codes remain.
func (u *User) CountRecoveryCodes() int {
	return len(u.RecoveryCodes)
}

// HasRole reports membership by normalized role name.
func (u *User) HasRole(normalizedName string) bool {
	for _, r := range u.Roles {
		if r.NormalizedName == normalizedName {
			return true
		}
	}
	return false
}

// AddRole embeds a copy of the role into the user document. Callers resolve
// the role against the role collection first; see stores.Users.AddToRole.
func (u *User) AddRole(role Role) {
	u.Roles = append(u.Roles, role)
}

// RemoveRole drops every embedded role matching the normalized name.
func (u *User) RemoveRole(normalizedName string) {
	kept := u.Roles[:0]
	for _, r := range u.Roles {
		if r.NormalizedName != normalizedName {
			kept = append(kept, r)
		}
	}
	u.Roles = kept
}

// RoleNames returns the display names of the user's roles, in embed order.
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = r.Name
	}
	return names
}
