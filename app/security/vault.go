// Package security encrypts the secrets stored in the local config file.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const keyFileName = "key.bin"

// ErrCiphertextTooShort is returned for values that cannot hold a nonce
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Vault seals strings with AES-256-GCM using a key file kept next to the config
type Vault struct {
	keyPath string
}

// NewVault returns a vault whose key lives in dir
func NewVault(dir string) *Vault {
	return &Vault{keyPath: filepath.Join(dir, keyFileName)}
}

// KeyPath returns the location of the key file
func (v *Vault) KeyPath() string {
	return v.keyPath
}

// key reads the key, generating it on first use
func (v *Vault) key() ([]byte, error) {
	if key, err := os.ReadFile(v.keyPath); err == nil {
		if len(key) != 32 {
			return nil, fmt.Errorf("invalid key size: expected 32 bytes, got %d", len(key))
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(v.keyPath), 0755); err != nil {
		return nil, fmt.Errorf("could not create key directory: %w", err)
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("could not generate random key: %w", err)
	}
	if err := os.WriteFile(v.keyPath, key, 0600); err != nil {
		return nil, fmt.Errorf("could not write key file: %w", err)
	}
	return key, nil
}

func (v *Vault) gcm() (cipher.AEAD, error) {
	key, err := v.key()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("could not create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext and returns it base64 encoded. Empty stays empty.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	gcm, err := v.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("could not generate nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("could not decode ciphertext: %w", err)
	}
	gcm, err := v.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("could not decrypt: %w", err)
	}
	return string(plaintext), nil
}

// DecryptOrPlain returns the decrypted value, or value unchanged when it was
// never encrypted (hand-edited config files).
func (v *Vault) DecryptOrPlain(value string) string {
	plain, err := v.Decrypt(value)
	if err != nil {
		return value
	}
	return plain
}
