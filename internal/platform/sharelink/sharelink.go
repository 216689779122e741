// Package sharelink issues and verifies short-lived signed tokens for public
// invoice view links. Only the token contract is exposed to callers; the
// signing scheme is an implementation detail.
package sharelink

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for expired, malformed or tampered tokens.
var ErrInvalidToken = errors.New("invalid or expired link token")

// InvoiceClaims identifies the invoice a public link grants access to.
type InvoiceClaims struct {
	InvoiceID string `json:"invoice_id"`
	TenantID  string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// Signer issues tokens for invoice view links.
type Signer interface {
	SignInvoiceLink(invoiceID, tenantID string) (string, error)
}

// Verifier validates a token and returns the invoice/tenant it grants.
type Verifier interface {
	VerifyInvoiceLink(token string) (*InvoiceClaims, error)
}

// HMACSigner signs and verifies link tokens with a shared secret.
type HMACSigner struct {
	key []byte
	ttl time.Duration
}

func NewHMACSigner(key string, ttl time.Duration) *HMACSigner {
	return &HMACSigner{key: []byte(key), ttl: ttl}
}

func (s *HMACSigner) SignInvoiceLink(invoiceID, tenantID string) (string, error) {
	now := time.Now()
	claims := InvoiceClaims{
		InvoiceID: invoiceID,
		TenantID:  tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign link token: %w", err)
	}
	return signed, nil
}

func (s *HMACSigner) VerifyInvoiceLink(tokenStr string) (*InvoiceClaims, error) {
	claims := &InvoiceClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.InvoiceID == "" || claims.TenantID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
