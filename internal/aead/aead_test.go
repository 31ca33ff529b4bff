package aead

import (
	"bytes"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i * 7)
	}
	return key
}

func TestRoundTrip(t *testing.T) {
	key := testKey()
	plaintext := []byte("hello world")

	blob, err := Seal(key, plaintext, nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	got, err := Open(key, blob, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("got %q, want %q", got, plaintext)
	}
}

func TestSealProducesFreshNonce(t *testing.T) {
	key := testKey()
	plaintext := []byte("hello world")

	a, err := Seal(key, plaintext, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Seal(key, plaintext, nil)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("two seals of the same plaintext produced identical ciphertext")
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	key := testKey()
	other := testKey()
	other[0] ^= 0xFF

	blob, err := Seal(key, []byte("secret"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Open(other, blob, nil); err == nil {
		t.Fatal("expected decryption with wrong key to fail")
	}
}

func TestOpenRejectsTamperedBlob(t *testing.T) {
	key := testKey()
	blob, err := Seal(key, []byte("secret"), nil)
	if err != nil {
		t.Fatal(err)
	}
	blob[len(blob)-1] ^= 0x01

	if _, err := Open(key, blob, nil); err == nil {
		t.Fatal("expected decryption of tampered blob to fail")
	}
}

func TestSealRejectsWrongKeySize(t *testing.T) {
	if _, err := Seal([]byte("too short"), []byte("x"), nil); err == nil {
		t.Fatal("expected error for short key")
	}
}
