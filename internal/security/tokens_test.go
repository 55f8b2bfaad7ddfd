package security

import (
	"errors"
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidate(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, exp, err := p.Issue("u1", "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("token empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	claims, err := p.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "ada@example.com" || claims.Name != "Ada" {
		t.Errorf("Validate: got subject=%q name=%q email=%q", claims.Subject, claims.Name, claims.Email)
	}
}

func TestTokenProvider_ValidateInvalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	if _, err := p.Validate("invalid-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate invalid token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_WrongAudience(t *testing.T) {
	signer, pub, err := ParseKeyPair(testPrivateKeyPEM, testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParseKeyPair: %v", err)
	}
	other := NewTokenProvider(signer, pub, "test-issuer", "someone-else", time.Minute)
	token, _, err := other.Issue("u1", "", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p, _ := NewTestTokenProvider()
	if _, err := p.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate foreign audience: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_Expired(t *testing.T) {
	signer, pub, err := ParseKeyPair(testPrivateKeyPEM, testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParseKeyPair: %v", err)
	}
	p := NewTokenProvider(signer, pub, "test-issuer", "test-audience", -time.Minute)
	token, _, err := p.Issue("u1", "", "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate expired: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyOnly(t *testing.T) {
	_, pub, err := ParseKeyPair("", testPublicKeyPEM)
	if err != nil {
		t.Fatalf("ParseKeyPair: %v", err)
	}
	p := NewTokenProvider(nil, pub, "test-issuer", "test-audience", time.Minute)
	if _, _, err := p.Issue("u1", "", ""); !errors.Is(err, ErrSigningDisabled) {
		t.Errorf("Issue without private key: want ErrSigningDisabled, got %v", err)
	}
}
