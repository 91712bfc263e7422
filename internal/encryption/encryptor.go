// Package encryption protects snapshot archives before they leave the
// machine for a replica. Local snapshots stay plaintext: the provider
// secrets inside them are already ciphered at rest by the store.
package encryption

import (
	"io"

	"apikeep/internal/snapshot"
)

// Encryptor handles archive encryption and unlocking for decryption.
// Encryption uses the public key only; decryption requires a passphrase
// to unlock the private key, producing a Decryptor for the session.
type Encryptor interface {
	// Setup performs one-time key generation. Called by `apikeep keys init`.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key using the passphrase and returns a
	// Decryptor valid for the duration of the session.
	Unlock(passphrase string) (snapshot.Decryptor, error)

	// IsConfigured returns true if both key files exist.
	IsConfigured() bool
}
