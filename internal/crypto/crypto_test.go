package crypto

import (
	"encoding/base64"
	"errors"
	"testing"
)

func testEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	encoded, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	enc, err := NewEncryptorFromBase64(encoded)
	if err != nil {
		t.Fatalf("NewEncryptorFromBase64() error = %v", err)
	}
	return enc
}

func TestSealAndOpen(t *testing.T) {
	enc := testEncryptor(t)

	sealed, err := enc.Seal("sk-very-secret")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if sealed == "sk-very-secret" {
		t.Error("ciphertext equals plaintext")
	}

	opened, err := enc.Open(sealed)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if opened != "sk-very-secret" {
		t.Errorf("Open() = %q, want original secret", opened)
	}
}

func TestSeal_EmptyRoundTrips(t *testing.T) {
	enc := testEncryptor(t)

	sealed, err := enc.Seal("")
	if err != nil || sealed != "" {
		t.Errorf("Seal(\"\") = %q, %v, want empty and nil", sealed, err)
	}
	opened, err := enc.Open("")
	if err != nil || opened != "" {
		t.Errorf("Open(\"\") = %q, %v, want empty and nil", opened, err)
	}
}

func TestSeal_FreshNonces(t *testing.T) {
	enc := testEncryptor(t)

	first, _ := enc.Seal("sk-very-secret")
	second, _ := enc.Seal("sk-very-secret")
	if first == second {
		t.Error("two seals of the same secret are identical")
	}
}

func TestOpen_WrongKeyFails(t *testing.T) {
	sealed, err := testEncryptor(t).Seal("sk-very-secret")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if _, err := testEncryptor(t).Open(sealed); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Open() with wrong key error = %v, want ErrDecryptionFailed", err)
	}
}

func TestOpen_Malformed(t *testing.T) {
	enc := testEncryptor(t)

	if _, err := enc.Open("not base64!!!"); err == nil {
		t.Error("Open(non-base64) succeeded")
	}
	short := base64.StdEncoding.EncodeToString([]byte("tiny"))
	if _, err := enc.Open(short); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("Open(short) error = %v, want ErrCiphertextTooShort", err)
	}
}

func TestNewEncryptor_BadKeys(t *testing.T) {
	if _, err := NewEncryptor([]byte("short")); !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("NewEncryptor(short key) error = %v, want ErrInvalidKeySize", err)
	}
	if _, err := NewEncryptorFromBase64("***"); err == nil {
		t.Error("NewEncryptorFromBase64(garbage) succeeded")
	}
}
