package logger

import "strings"

// SanitizedEmail masks an address for logging, e.g. "A******@*******.COM".
// Lookup keys are normalized (case-folded) emails, so only the first
// character of the local part and the final domain label survive.
func SanitizedEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	var b strings.Builder
	b.WriteByte(local[0])
	b.WriteString(strings.Repeat("*", len(local)-1))
	b.WriteByte('@')

	if dot := strings.LastIndexByte(domain, '.'); dot > 0 {
		b.WriteString(strings.Repeat("*", dot))
		b.WriteString(domain[dot:])
	} else {
		b.WriteString(strings.Repeat("*", len(domain)))
	}

	return b.String()
}
