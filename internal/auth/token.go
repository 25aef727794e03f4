package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every verification failure: malformed,
// unsigned, expired, wrong key, or missing subject claim. Callers get a single
// unauthorized-style outcome and no sub-reason.
var ErrInvalidToken = errors.New("invalid token")

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Claims carried by every token issued by the user service. The numeric
// subject travels in unique_name as a string.
type Claims struct {
	Name  string `json:"unique_name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the caller extracted from a verified token.
type Identity struct {
	UserID int
	Role   string
}

// Verifier validates bearer tokens against a shared HS256 secret.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier creates a verifier with zero clock-skew tolerance.
func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// WithLeeway returns a copy of the verifier tolerating the given clock skew.
func (v *Verifier) WithLeeway(d time.Duration) *Verifier {
	return &Verifier{secret: v.secret, leeway: d}
}

// Verify parses and validates a raw bearer credential, stripping an optional
// "Bearer " scheme prefix first.
func (v *Verifier) Verify(raw string) (Identity, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return Identity{}, ErrInvalidToken
	}

	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.leeway))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID, err := strconv.Atoi(claims.Name)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: userID, Role: claims.Role}, nil
}

// Issuer signs tokens for authenticated users.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an issuer signing with the shared secret. Tokens expire
// after ttl.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	return &Issuer{secret: secret, ttl: ttl}
}

// Issue signs a token for the given user.
func (i *Issuer) Issue(userID int, email, role string, now time.Time) (string, error) {
	claims := &Claims{
		Name:  strconv.Itoa(userID),
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}
