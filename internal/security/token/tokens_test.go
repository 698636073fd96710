package token

import (
	"strings"
	"testing"
)

func TestFingerprintStableAndFixedLength(t *testing.T) {
	a := Fingerprint("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	b := Fingerprint("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	if a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}
	// sha256 -> 32 bytes -> 43 chars base64url sin padding
	if len(a) != 43 {
		t.Fatalf("unexpected fingerprint length: %d", len(a))
	}
	if strings.Contains(a, "=") {
		t.Fatalf("fingerprint should not contain padding: %q", a)
	}
}

func TestFingerprintDiffersPerToken(t *testing.T) {
	if Fingerprint("token-a") == Fingerprint("token-b") {
		t.Fatal("different tokens produced the same fingerprint")
	}
}

func TestMask(t *testing.T) {
	tok := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.abc.def"
	m := Mask(tok)
	if m == tok {
		t.Fatal("mask returned the raw token")
	}
	if !strings.HasPrefix(m, tok[:8]) || !strings.HasSuffix(m, tok[len(tok)-4:]) {
		t.Fatalf("mask should keep short prefix/suffix: %q", m)
	}
	if strings.Contains(m, tok[10:len(tok)-10]) {
		t.Fatal("mask leaked the middle of the token")
	}
	if Mask("short") != "***" {
		t.Fatalf("short tokens must be fully masked, got %q", Mask("short"))
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, _ := GenerateOpaqueToken(32)
	if a == b {
		t.Fatal("two opaque tokens should not collide")
	}
}
