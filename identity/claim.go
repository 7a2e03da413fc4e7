package identity

// Claim is a (type, value, issuer) statement about a user, embedded in the
// user document rather than stored as an addressable row.
type Claim struct {
	Type   string `json:"claim_type"`
	Value  string `json:"claim_value"`
	Issuer string `json:"issuer,omitempty"`
}

// Matches reports whether two claims carry the same type and value.
// Issuer is deliberately ignored; the identity framework matches claims
// on the (type, value) pair only.
func (c Claim) Matches(other Claim) bool {
	return c.Type == other.Type && c.Value == other.Value
}
