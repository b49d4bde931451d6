package crypto

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "secret" {
		t.Fatalf("credential stored in the clear")
	}
	if err := CheckPassword(hash, "secret"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestRefreshTokenHashing(t *testing.T) {
	tok, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	other, err := NewRefreshToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if tok == other {
		t.Fatalf("tokens should not repeat")
	}
	if HashToken(tok) == tok {
		t.Fatalf("hash should differ from token")
	}
	if HashToken(tok) != HashToken(tok) {
		t.Fatalf("hash should be deterministic")
	}
}
