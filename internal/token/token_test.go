package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestDecodeIgnoresSignatureAndExtras(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signedToken(t, jwt.MapClaims{
		"id":          float64(7),
		"name":        "Dr. Grey",
		"email":       "grey@clinic.test",
		"role":        "DOCTOR",
		"permissions": []string{"read:treatment"},
		"exp":         exp.Unix(),
		"shoe_size":   43,
	})

	claims := Decode(tok)
	if claims.ID != 7 || claims.Name != "Dr. Grey" || claims.Email != "grey@clinic.test" {
		t.Fatalf("identity claims not decoded: %+v", claims)
	}
	if claims.Role != "DOCTOR" {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != "read:treatment" {
		t.Fatalf("permissions not decoded: %v", claims.Permissions)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.Equal(exp) {
		t.Fatalf("exp not decoded: %v", claims.ExpiresAt)
	}
}

func TestDecodeMalformedYieldsEmptyClaims(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not-a-token",
		"only.two",
		"a.b.c.d",
		"aaa.!!!.ccc",
		"aaa." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".ccc",
	}
	for _, tok := range cases {
		if claims := Decode(tok); !claims.Empty() {
			t.Fatalf("expected empty claims for %q, got %+v", tok, claims)
		}
	}
}

func TestIsExpired(t *testing.T) {
	past := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	future := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	noExp := signedToken(t, jwt.MapClaims{"role": "NURSE"})

	if !IsExpired(past) {
		t.Fatal("token with past exp should be expired")
	}
	if IsExpired(future) {
		t.Fatal("token with future exp should not be expired")
	}
	if !IsExpired(noExp) {
		t.Fatal("token without exp should be treated as expired")
	}
	if !IsExpired("garbage") {
		t.Fatal("malformed token should be treated as expired")
	}
}

func TestExpirationRoundTrip(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	tok := signedToken(t, jwt.MapClaims{"exp": exp.Unix()})

	if got := ExpirationUnixMilli(tok); got != exp.Unix()*1000 {
		t.Fatalf("ExpirationUnixMilli = %d, want %d", got, exp.Unix()*1000)
	}
	if got := ExpirationTime(tok); !got.Equal(exp) {
		t.Fatalf("ExpirationTime = %v, want %v", got, exp)
	}
	if got := ExpirationUnixMilli("garbage"); got != 0 {
		t.Fatalf("expected 0 for malformed token, got %d", got)
	}
	if got := ExpirationTime("garbage"); !got.IsZero() {
		t.Fatalf("expected zero time for malformed token, got %v", got)
	}
}
