package utils

import (
	"crypto/rand"
	"encoding/base64"
	"testing"
)

func testKey(t *testing.T) *[32]byte {
	t.Helper()
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	key, err := DecodeEncryptionKey(base64.URLEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("DecodeEncryptionKey failed: %v", err)
	}
	return key
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key := testKey(t)

	plaintext := "ya29.a0AfH6SMB-example-access-token"
	sealed, err := EncryptToken(plaintext, key)
	if err != nil {
		t.Fatalf("EncryptToken failed: %v", err)
	}
	if sealed == plaintext {
		t.Fatal("ciphertext equals plaintext")
	}

	opened, err := DecryptToken(sealed, key)
	if err != nil {
		t.Fatalf("DecryptToken failed: %v", err)
	}
	if opened != plaintext {
		t.Fatalf("roundtrip mismatch: %q != %q", opened, plaintext)
	}
}

func TestEncryptTokenEmptyStaysEmpty(t *testing.T) {
	key := testKey(t)

	sealed, err := EncryptToken("", key)
	if err != nil {
		t.Fatalf("EncryptToken failed: %v", err)
	}
	if sealed != "" {
		t.Fatalf("empty plaintext produced ciphertext %q", sealed)
	}

	opened, err := DecryptToken("", key)
	if err != nil || opened != "" {
		t.Fatalf("empty ciphertext: got %q, %v", opened, err)
	}
}

func TestDecryptTokenRejectsTampering(t *testing.T) {
	key := testKey(t)

	sealed, err := EncryptToken("refresh-token", key)
	if err != nil {
		t.Fatalf("EncryptToken failed: %v", err)
	}

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := DecryptToken(tampered, key); err == nil {
		t.Fatal("tampered ciphertext decrypted without error")
	}
}

func TestDecryptTokenWrongKey(t *testing.T) {
	sealed, err := EncryptToken("secret", testKey(t))
	if err != nil {
		t.Fatalf("EncryptToken failed: %v", err)
	}
	if _, err := DecryptToken(sealed, testKey(t)); err == nil {
		t.Fatal("ciphertext decrypted with the wrong key")
	}
}

func TestDecodeEncryptionKeyRejectsBadInput(t *testing.T) {
	if _, err := DecodeEncryptionKey("not base64!!"); err == nil {
		t.Fatal("invalid base64 accepted")
	}
	short := base64.URLEncoding.EncodeToString([]byte("too short"))
	if _, err := DecodeEncryptionKey(short); err == nil {
		t.Fatal("short key accepted")
	}
}
