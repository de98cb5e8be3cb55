package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveKeyDeterminism(t *testing.T) {
	salt := []byte("0123456789abcdef")
	k1 := DeriveKey("passphrase", salt)
	k2 := DeriveKey("passphrase", salt)
	if !bytes.Equal(k1, k2) {
		t.Error("same passphrase and salt should derive the same key")
	}
	if len(k1) != keySize {
		t.Errorf("key length = %d, want %d", len(k1), keySize)
	}
	if bytes.Equal(k1, DeriveKey("other", salt)) {
		t.Error("different passphrases should derive different keys")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	plaintext := []byte("SQLite format 3\x00 pretend database")

	sealed, err := Seal(plaintext, "correct horse")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed output contains the plaintext")
	}

	got, err := Open(sealed, "correct horse")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip = %q, want %q", got, plaintext)
	}
}

func TestSealUsesFreshSalt(t *testing.T) {
	a, err := Seal([]byte("x"), "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	b, err := Seal([]byte("x"), "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Equal(a[:saltSize+nonceSize], b[:saltSize+nonceSize]) {
		t.Error("two seals share salt and nonce")
	}
}

func TestOpenRejects(t *testing.T) {
	sealed, err := Seal([]byte("pet data"), "right")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	if _, err := Open(sealed, "wrong"); err == nil {
		t.Error("wrong passphrase should fail")
	}

	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-1] ^= 0xff
	if _, err := Open(tampered, "right"); err == nil {
		t.Error("tampered ciphertext should fail")
	}

	if _, err := Open(sealed[:10], "right"); !errors.Is(err, ErrTooShort) {
		t.Errorf("short input: err = %v, want ErrTooShort", err)
	}

	if _, err := Seal([]byte("x"), ""); err == nil {
		t.Error("empty passphrase should fail")
	}
}

func TestSealEmptyPlaintext(t *testing.T) {
	sealed, err := Seal(nil, "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	got, err := Open(sealed, "pw")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d bytes, want 0", len(got))
	}
}
