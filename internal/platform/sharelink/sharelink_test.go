package sharelink

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndVerify(t *testing.T) {
	s := NewHMACSigner("test-key", time.Hour)

	token, err := s.SignInvoiceLink("inv-1", "clinic_a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := s.VerifyInvoiceLink(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.InvoiceID != "inv-1" {
		t.Errorf("expected inv-1, got %s", claims.InvoiceID)
	}
	if claims.TenantID != "clinic_a" {
		t.Errorf("expected clinic_a, got %s", claims.TenantID)
	}
}

func TestVerify_Expired(t *testing.T) {
	s := NewHMACSigner("test-key", -time.Minute)

	token, err := s.SignInvoiceLink("inv-1", "clinic_a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.VerifyInvoiceLink(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	signer := NewHMACSigner("key-a", time.Hour)
	verifier := NewHMACSigner("key-b", time.Hour)

	token, _ := signer.SignInvoiceLink("inv-1", "clinic_a")
	if _, err := verifier.VerifyInvoiceLink(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	s := NewHMACSigner("test-key", time.Hour)
	if _, err := s.VerifyInvoiceLink("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
