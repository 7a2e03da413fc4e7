package identity

// Token is a provider-scoped secret stored on the user, such as an
// authenticator key. Unique per (provider, name); the value is overwritten
// in place on re-set.
type Token struct {
	Provider string `json:"login_provider"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}
