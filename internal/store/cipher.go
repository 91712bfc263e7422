package store

// Cipher protects the apiKey field at rest. Encrypt is idempotent: a value
// already in the tagged ciphertext form is returned unchanged. Decrypt
// passes untagged values through so legacy plaintext records stay readable.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(value string) (string, error)
}
