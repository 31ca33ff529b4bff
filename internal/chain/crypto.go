package chain

import "github.com/soulproto/soul/internal/aead"

// AuthFailed reports a blob that failed AEAD authentication: a corrupted
// or tampered transfer, or a key mismatch between peers.
type AuthFailed struct {
	Path string
}

func (e *AuthFailed) Error() string {
	return "auth failed decrypting " + e.Path
}

// EncryptBlob seals plaintext under the chain's shared encryption_key.
// Associated data is empty per the wire format (12B nonce || 16B tag ||
// ciphertext, produced directly by aead.Seal).
func EncryptBlob(encryptionKey [32]byte, plaintext []byte) ([]byte, error) {
	return aead.Seal(encryptionKey[:], plaintext, nil)
}

// DecryptBlob opens a blob sealed by EncryptBlob. A failure here is never
// fatal to the peer session: callers should drop the file and log the
// peer id, per spec.md's AuthFailed handling.
func DecryptBlob(encryptionKey [32]byte, path string, blob []byte) ([]byte, error) {
	plaintext, err := aead.Open(encryptionKey[:], blob, nil)
	if err != nil {
		return nil, &AuthFailed{Path: path}
	}
	return plaintext, nil
}
