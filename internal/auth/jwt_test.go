package auth

import (
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	tokens := TokenService{Secret: []byte("test-secret"), Issuer: "anismama", Duration: time.Hour}
	user := &User{ID: "u1", Username: "reader"}

	signed, exp, err := tokens.Sign(user)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatal("expiry must be in the future")
	}

	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "u1" || claims.Username != "reader" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tokens := TokenService{Secret: []byte("test-secret"), Issuer: "anismama", Duration: time.Hour}
	signed, _, err := tokens.Sign(&User{ID: "u1", Username: "reader"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other := TokenService{Secret: []byte("other-secret"), Issuer: "anismama", Duration: time.Hour}
	if _, err := other.Parse(signed); err == nil {
		t.Fatal("expected parse to fail with a different secret")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	tokens := TokenService{Secret: []byte("test-secret"), Issuer: "anismama", Duration: -time.Hour}
	signed, _, err := tokens.Sign(&User{ID: "u1", Username: "reader"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := tokens.Parse(signed); err == nil {
		t.Fatal("expected parse to fail for an expired token")
	}
}
