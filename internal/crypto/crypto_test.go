package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
)

func TestValidatePublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ValidatePublicKey(base64.StdEncoding.EncodeToString(pub))
	if err != nil {
		t.Fatal(err)
	}
	if !pub.Equal(got) {
		t.Fatal("decoded key does not match original")
	}
}

func TestValidatePublicKeyRejects(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not base64", "!!! not base64 !!!"},
		{"wrong length", base64.StdEncoding.EncodeToString([]byte("short"))},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ValidatePublicKey(c.key); !errors.Is(err, ErrInvalidPublicKey) {
				t.Fatalf("got %v, want ErrInvalidPublicKey", err)
			}
		})
	}
}

func TestNewUUIDv7(t *testing.T) {
	a := NewUUIDv7()
	b := NewUUIDv7()
	if a == b {
		t.Fatal("duplicate UUIDs")
	}
	if a.Version() != 7 {
		t.Fatalf("version = %d, want 7", a.Version())
	}
}
