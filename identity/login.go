package identity

// Login links a user to an external identity provider. The (Provider, Key)
// pair is unique per user and resolvable to exactly one user system-wide.
type Login struct {
	Provider    string `json:"login_provider"`
	Key         string `json:"provider_key"`
	DisplayName string `json:"provider_display_name,omitempty"`
}

// Matches reports whether two logins refer to the same external identity,
// ignoring the display name.
func (l Login) Matches(provider, key string) bool {
	return l.Provider == provider && l.Key == key
}
