package encryption

import (
	"bytes"
	"path/filepath"
	"testing"

	"apikeep/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "test.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "test.key"),
	})
}

func TestAgeEncryptor(t *testing.T) {
	t.Run("setup then encrypt and unlock round trip", func(t *testing.T) {
		e := newTestAgeEncryptor(t)

		if e.IsConfigured() {
			t.Error("IsConfigured() = true before setup")
		}
		if err := e.Setup("correct horse"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if !e.IsConfigured() {
			t.Error("IsConfigured() = false after setup")
		}

		plaintext := []byte("snapshot archive contents")
		var ciphertext bytes.Buffer
		if err := e.Encrypt(bytes.NewReader(plaintext), &ciphertext); err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if bytes.Contains(ciphertext.Bytes(), plaintext) {
			t.Error("ciphertext contains the plaintext")
		}

		dec, err := e.Unlock("correct horse")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}

		var decrypted bytes.Buffer
		if err := dec.Decrypt(bytes.NewReader(ciphertext.Bytes()), &decrypted); err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if !bytes.Equal(decrypted.Bytes(), plaintext) {
			t.Errorf("Decrypt() = %q, want %q", decrypted.Bytes(), plaintext)
		}
	})

	t.Run("wrong passphrase cannot unlock", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		if err := e.Setup("correct horse"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}

		if _, err := e.Unlock("battery staple"); err == nil {
			t.Error("Unlock() with wrong passphrase succeeded, want error")
		}
	})

	t.Run("encrypt fails before setup", func(t *testing.T) {
		e := newTestAgeEncryptor(t)
		err := e.Encrypt(bytes.NewReader([]byte("data")), &bytes.Buffer{})
		if err == nil {
			t.Error("Encrypt() without keys succeeded, want error")
		}
	})
}

func TestTestEncryptor(t *testing.T) {
	t.Run("round trip strips the header", func(t *testing.T) {
		e := NewTestEncryptor()

		plaintext := []byte("archive data")
		var ciphertext bytes.Buffer
		if err := e.Encrypt(bytes.NewReader(plaintext), &ciphertext); err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		if bytes.Equal(ciphertext.Bytes(), plaintext) {
			t.Error("encrypted output equals plaintext")
		}

		dec, err := e.Unlock("any passphrase")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		var out bytes.Buffer
		if err := dec.Decrypt(bytes.NewReader(ciphertext.Bytes()), &out); err != nil {
			t.Fatalf("Decrypt() error = %v", err)
		}
		if !bytes.Equal(out.Bytes(), plaintext) {
			t.Errorf("round trip = %q, want %q", out.Bytes(), plaintext)
		}
	})

	t.Run("decrypt rejects data without the header", func(t *testing.T) {
		dec := &TestDecryptor{}
		err := dec.Decrypt(bytes.NewReader([]byte("plain data, no header")), &bytes.Buffer{})
		if err == nil {
			t.Error("Decrypt() of unencrypted data succeeded, want error")
		}
	})
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Run("age is the default", func(t *testing.T) {
		for _, typ := range []string{"", "age"} {
			e, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: typ})
			if err != nil {
				t.Fatalf("NewEncryptorFromConfig(%q) error = %v", typ, err)
			}
			if _, ok := e.(*AgeEncryptor); !ok {
				t.Errorf("encryptor type = %T, want *AgeEncryptor", e)
			}
		}
	})

	t.Run("unknown type fails", func(t *testing.T) {
		if _, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "rot13"}); err == nil {
			t.Error("NewEncryptorFromConfig(unknown) succeeded, want error")
		}
	})
}
