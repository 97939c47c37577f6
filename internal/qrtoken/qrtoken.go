// Package qrtoken signs and verifies the compact, typed tokens embedded in
// student badges and stall QR prints. Verification is pure: no storage, no
// side effects.
package qrtoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TypeStudent TokenType = "student"
	TypeStall   TokenType = "stall"
)

// Student tokens rotate daily; stall tokens live on durable physical prints,
// so they get an effectively non-expiring window.
const (
	StudentTokenTTL = 24 * time.Hour
	StallTokenTTL   = 365 * 24 * time.Hour
)

var (
	ErrTokenMalformed    = errors.New("qr token malformed")
	ErrTokenExpired      = errors.New("qr token expired")
	ErrTokenTypeMismatch = errors.New("qr token type mismatch")
)

type Claims struct {
	SubjectID uint      `json:"sub_id"`
	EventID   uint      `json:"event_id"`
	Type      TokenType `json:"typ"`
	Nonce     string    `json:"nonce"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// TTLFor returns the default signing window for a token type.
func TTLFor(typ TokenType) time.Duration {
	if typ == TypeStall {
		return StallTokenTTL
	}
	return StudentTokenTTL
}

// Sign issues a token for subjectID at eventID. The random nonce guarantees
// that two tokens for the same subject and event are never byte-identical.
func (c *Codec) Sign(subjectID, eventID uint, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SubjectID: subjectID,
		EventID:   eventID,
		Type:      typ,
		Nonce:     uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks signature, structure and expiry, then asserts the embedded
// type matches what the caller expects (a stall token presented to the
// student-scan endpoint must fail, and vice versa).
func (c *Codec) Verify(raw string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Type != want {
		return nil, ErrTokenTypeMismatch
	}
	return claims, nil
}
