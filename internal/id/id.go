package id

import "crypto/rand"

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// New returns a random lowercase alphanumeric id of n characters.
func New(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = alphabet[b[i]%byte(len(alphabet))]
	}
	return string(b)
}

// Session returns a 16-character session id.
func Session() string {
	return New(16)
}

// InviteCode returns a shareable invite code with a recognizable prefix,
// so /start payloads can be told apart from other deep-link arguments.
func InviteCode() string {
	return "INV-" + New(10)
}
