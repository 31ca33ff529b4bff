package chain

import "testing"

func testMnemonic() []string {
	// 16 distinct words from Wordlist, deterministic for testing.
	return []string{
		Wordlist[0], Wordlist[1], Wordlist[2], Wordlist[3],
		Wordlist[4], Wordlist[5], Wordlist[6], Wordlist[7],
		Wordlist[8], Wordlist[9], Wordlist[10], Wordlist[11],
		Wordlist[12], Wordlist[13], Wordlist[14], Wordlist[15],
	}
}

func TestValidateAccepts16KnownWords(t *testing.T) {
	if err := Validate(testMnemonic()); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateRejectsWrongWordCount(t *testing.T) {
	if err := Validate(testMnemonic()[:15]); err == nil {
		t.Fatal("expected InvalidToken for 15 words")
	}
}

func TestValidateRejectsUnknownWord(t *testing.T) {
	words := testMnemonic()
	words[0] = "not-a-real-word-xyz"
	if err := Validate(words); err == nil {
		t.Fatal("expected InvalidToken for unknown word")
	}
}

func TestValidateIsCaseInsensitive(t *testing.T) {
	words := testMnemonic()
	words[0] = "ABANDON"
	if err := Validate(words); err != nil {
		t.Fatalf("expected case-insensitive acceptance, got %v", err)
	}
}

func TestEntropyIsDeterministic(t *testing.T) {
	words := testMnemonic()
	e1, err := Entropy(words)
	if err != nil {
		t.Fatal(err)
	}
	e2, err := Entropy(words)
	if err != nil {
		t.Fatal(err)
	}
	if string(e1) != string(e2) {
		t.Fatal("Entropy must be deterministic for the same words")
	}
	if len(e1) != EntropyLen {
		t.Fatalf("len(entropy) = %d, want %d", len(e1), EntropyLen)
	}
}

func TestDeriveKeysAreDistinctAndDeterministic(t *testing.T) {
	words := testMnemonic()
	enc1, topic1, err := DeriveKeys(words)
	if err != nil {
		t.Fatal(err)
	}
	enc2, topic2, err := DeriveKeys(words)
	if err != nil {
		t.Fatal(err)
	}
	if enc1 != enc2 || topic1 != topic2 {
		t.Fatal("DeriveKeys must be deterministic for the same mnemonic")
	}
	if enc1 == topic1 {
		t.Fatal("encryption_key and topic must differ")
	}
}

func TestGenerateReturnsValidMnemonic(t *testing.T) {
	words, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(words); err != nil {
		t.Fatalf("generated mnemonic failed Validate: %v", err)
	}
}

func TestGenerateProducesDifferentMnemonicsAcrossCalls(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	if Normalize(a) == Normalize(b) {
		t.Fatal("two independent Generate calls produced the same mnemonic")
	}
}

func TestDeriveKeysDifferByMnemonic(t *testing.T) {
	words1 := testMnemonic()
	words2 := testMnemonic()
	words2[15] = Wordlist[200]

	enc1, _, err := DeriveKeys(words1)
	if err != nil {
		t.Fatal(err)
	}
	enc2, _, err := DeriveKeys(words2)
	if err != nil {
		t.Fatal(err)
	}
	if enc1 == enc2 {
		t.Fatal("different mnemonics must derive different keys")
	}
}
