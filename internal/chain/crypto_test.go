package chain

import "testing"

func TestEncryptDecryptBlobRoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("hello world")

	blob, err := EncryptBlob(key, plaintext)
	if err != nil {
		t.Fatalf("EncryptBlob failed: %v", err)
	}
	got, err := DecryptBlob(key, "SEED.md", blob)
	if err != nil {
		t.Fatalf("DecryptBlob failed: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Errorf("got %q, want %q", got, plaintext)
	}
}

func TestEncryptBlobProducesFreshNonce(t *testing.T) {
	var key [32]byte
	plaintext := []byte("hello world")

	b1, _ := EncryptBlob(key, plaintext)
	b2, _ := EncryptBlob(key, plaintext)
	if string(b1) == string(b2) {
		t.Error("two encryptions of the same plaintext must differ")
	}
}

func TestDecryptBlobReportsAuthFailed(t *testing.T) {
	var key, wrongKey [32]byte
	wrongKey[0] = 1

	blob, _ := EncryptBlob(key, []byte("secret"))
	_, err := DecryptBlob(wrongKey, "knowledge-graph.jsonl", blob)
	if err == nil {
		t.Fatal("expected an error decrypting under the wrong key")
	}
	if _, ok := err.(*AuthFailed); !ok {
		t.Errorf("expected *AuthFailed, got %T", err)
	}
}
