package auth

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func TestVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer(testSecret, time.Hour)
	token, err := issuer.Issue(42, "user@example.com", RoleUser, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier := NewVerifier(testSecret)

	for _, raw := range []string{token, "Bearer " + token} {
		id, err := verifier.Verify(raw)
		if err != nil {
			t.Fatalf("verify %q: %v", raw[:10], err)
		}
		if id.UserID != 42 {
			t.Fatalf("expected user 42, got %d", id.UserID)
		}
		if id.Role != RoleUser {
			t.Fatalf("expected role %s, got %s", RoleUser, id.Role)
		}
	}
}

func TestVerify_Failures(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer(testSecret, time.Hour)
	verifier := NewVerifier(testSecret)

	expired, err := NewIssuer(testSecret, time.Hour).Issue(1, "", RoleUser, time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}

	wrongKey, err := NewIssuer([]byte("other-secret"), time.Hour).Issue(1, "", RoleUser, time.Now())
	if err != nil {
		t.Fatalf("issue wrong key: %v", err)
	}

	valid, err := issuer.Issue(7, "", RoleAdmin, time.Now())
	if err != nil {
		t.Fatalf("issue valid: %v", err)
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"bare scheme", "Bearer "},
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong key", wrongKey},
		{"truncated", valid[:len(valid)-5]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := verifier.Verify(tt.raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestVerify_MissingSubjectClaim(t *testing.T) {
	t.Parallel()

	// Token signed correctly but without the numeric subject claim.
	claims := jwt.MapClaims{
		"role": RoleUser,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewVerifier(testSecret).Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_NonNumericSubject(t *testing.T) {
	t.Parallel()

	claims := &Claims{
		Name: "not-a-number",
		Role: RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewVerifier(testSecret).Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_ZeroLeewayByDefault(t *testing.T) {
	t.Parallel()

	// Expired one second ago: rejected with zero skew, accepted with leeway.
	justExpired, err := NewIssuer(testSecret, time.Second).Issue(9, "", RoleUser, time.Now().Add(-2*time.Second))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewVerifier(testSecret).Verify(justExpired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected rejection with zero leeway, got %v", err)
	}

	id, err := NewVerifier(testSecret).WithLeeway(time.Minute).Verify(justExpired)
	if err != nil {
		t.Fatalf("expected acceptance with leeway, got %v", err)
	}
	if id.UserID != 9 {
		t.Fatalf("expected user 9, got %d", id.UserID)
	}
}

func TestIssue_SubjectIsStringified(t *testing.T) {
	t.Parallel()

	token, err := NewIssuer(testSecret, time.Hour).Issue(1234, "a@b.c", RoleAdmin, time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return testSecret, nil
	}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Name != strconv.Itoa(1234) {
		t.Fatalf("expected unique_name %q, got %q", "1234", claims.Name)
	}
}
