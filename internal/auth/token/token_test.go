package token

import "testing"

func TestGenerateRandomTokenIsURLSafeAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := GenerateRandomToken(SessionTokenBytes)
		if err != nil {
			t.Fatalf("GenerateRandomToken: %v", err)
		}
		if tok == "" {
			t.Fatal("empty token")
		}
		for _, r := range tok {
			if r == '+' || r == '/' || r == '=' {
				t.Fatalf("token %q contains non-URL-safe character %q", tok, r)
			}
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestHashSHA256IsDeterministic(t *testing.T) {
	a := HashSHA256("session-token")
	b := HashSHA256("session-token")
	if a != b {
		t.Fatalf("same input hashed differently: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashSHA256("other-token") {
		t.Fatal("different inputs produced the same hash")
	}
}
