package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"os"
)

// Free-text evaluation fields (justifications, strengths, improvement points)
// and final scores are stored encrypted at rest. The key is derived from
// FIELD_ENCRYPTION_KEY; ciphertext is base64(nonce || sealed).

func encryptionKey() []byte {
	sum := sha256.Sum256([]byte(os.Getenv("FIELD_ENCRYPTION_KEY")))
	return sum[:]
}

// EncryptField encrypts plaintext with AES-256-GCM. Empty input is returned
// unchanged so optional fields stay empty.
func EncryptField(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptField reverses EncryptField. Any failure (bad base64, truncated
// nonce, auth failure) returns the input unchanged: historical rows imported
// before encryption was introduced must stay readable.
func DecryptField(ciphertext string) string {
	if ciphertext == "" {
		return ""
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return ciphertext
	}

	plaintext, err := openSealed(raw)
	if err != nil {
		return ciphertext
	}
	return plaintext
}

func openSealed(raw []byte) (string, error) {
	block, err := aes.NewCipher(encryptionKey())
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext shorter than nonce")
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
