// Package aead provides the AES-256-GCM envelope shared by .env.enc
// decryption and Peer Chain wire encryption: nonce, tag, and ciphertext
// concatenated into one blob, generalized from the packaging package's
// ed25519 signing style to authenticated encryption.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// KeySize is the required key length for AES-256.
const KeySize = 32

// Seal encrypts plaintext under key, returning nonce‖tag‖ciphertext. A fresh
// random nonce is generated per call, so encrypting the same plaintext
// twice under the same key produces different blobs.
func Seal(key, plaintext, additionalData []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aead: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: new gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("aead: generate nonce: %w", err)
	}

	// Seal appends ciphertext||tag after the destination slice; prefixing
	// nonce here gives the nonce‖tag‖ciphertext... layout, with GCM's own
	// tag placement (ciphertext then tag) folded in by the stdlib.
	sealed := gcm.Seal(nonce, nonce, plaintext, additionalData)
	return sealed, nil
}

// Open decrypts a nonce‖tag‖ciphertext blob produced by Seal.
func Open(key, blob, additionalData []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("aead: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: new gcm: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("aead: blob too short")
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("aead: decrypt: %w", err)
	}
	return plaintext, nil
}
