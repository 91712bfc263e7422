// Package secret implements the at-rest cipher for provider API keys.
//
// The key is derived from local machine and user identity, so a value only
// decrypts reproducibly on the machine/user pair that encrypted it. This is
// deliberate at-rest obfuscation, not hardened secret management: anyone who
// can run code as the owning user can derive the same key. It raises the bar
// against casual disk or backup exposure, nothing more.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"golang.org/x/crypto/hkdf"

	"apikeep/internal/store"
)

// tagPrefix marks an encrypted value. The full on-disk form is
// enc:<ivHex>:<cipherHex>; anything without the prefix is treated as
// legacy plaintext.
const tagPrefix = "enc:"

// hkdf parameters. Changing either invalidates every stored secret.
var (
	kdfSalt = []byte("apikeep.secret.v1")
	kdfInfo = []byte("api-key-at-rest")
)

// MalformedSecretError reports a value that carries the ciphertext tag but
// cannot be decoded: wrong segment count, non-hex payload, or a bad IV.
// Distinct from "not encrypted", which is a silent pass-through.
type MalformedSecretError struct {
	Reason string
}

func (e *MalformedSecretError) Error() string {
	return "malformed secret ciphertext: " + e.Reason
}

// MachineCipher encrypts API keys with AES-256-CTR under a key derived
// from hostname and username via HKDF-SHA256. A fresh random IV is
// generated per encryption and stored in the tagged value, so decryption
// is self-contained.
type MachineCipher struct {
	key []byte
}

var _ store.Cipher = (*MachineCipher)(nil)

// NewMachineCipher derives the cipher key from the current host and user.
func NewMachineCipher() (*MachineCipher, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("resolving hostname: %w", err)
	}
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	} else {
		username = os.Getenv("USER")
	}
	if username == "" {
		return nil, fmt.Errorf("cannot determine current user")
	}
	return NewMachineCipherFor(hostname, username)
}

// NewMachineCipherFor derives the cipher key from an explicit identity
// pair. Exposed so tests get a deterministic key.
func NewMachineCipherFor(hostname, username string) (*MachineCipher, error) {
	r := hkdf.New(sha256.New, []byte(hostname+"\x00"+username), kdfSalt, kdfInfo)
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving machine key: %w", err)
	}
	return &MachineCipher{key: key}, nil
}

// Encrypt returns the tagged ciphertext for plaintext. Already-tagged
// input is returned unchanged, so re-encryption is idempotent.
func (c *MachineCipher) Encrypt(plaintext string) (string, error) {
	if strings.HasPrefix(plaintext, tagPrefix) {
		return plaintext, nil
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("initializing cipher: %w", err)
	}

	ct := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(ct, []byte(plaintext))

	return tagPrefix + hex.EncodeToString(iv) + ":" + hex.EncodeToString(ct), nil
}

// Decrypt returns the plaintext for a tagged value. Untagged input is
// returned unchanged so legacy plaintext records stay readable.
func (c *MachineCipher) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, tagPrefix) {
		return value, nil
	}

	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return "", &MalformedSecretError{Reason: fmt.Sprintf("expected 3 segments, got %d", len(parts))}
	}

	iv, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", &MalformedSecretError{Reason: "iv is not valid hex"}
	}
	if len(iv) != aes.BlockSize {
		return "", &MalformedSecretError{Reason: fmt.Sprintf("iv must be %d bytes, got %d", aes.BlockSize, len(iv))}
	}

	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", &MalformedSecretError{Reason: "ciphertext is not valid hex"}
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("initializing cipher: %w", err)
	}

	plain := make([]byte, len(ct))
	cipher.NewCTR(block, iv).XORKeyStream(plain, ct)
	return string(plain), nil
}
