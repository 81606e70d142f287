package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a bearer credential. The console never
// verifies the signature; the records API issued the token and owns that
// check. Only the fields below are interpreted, anything else in the payload
// is ignored.
type Claims struct {
	ID          int64    `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Empty reports whether no claims were decoded at all.
func (c Claims) Empty() bool {
	return c.ID == 0 && c.Name == "" && c.Email == "" && c.Role == "" &&
		len(c.Permissions) == 0 && c.ExpiresAt == nil && c.Subject == ""
}

var unverifiedParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Decode parses the claim segment of a token without verifying the
// signature. Malformed input of any kind yields zero Claims, never an
// error: a garbage token is indistinguishable from no token.
func Decode(token string) Claims {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}
	}
	var claims Claims
	if _, _, err := unverifiedParser.ParseUnverified(token, &claims); err != nil {
		return Claims{}
	}
	return claims
}

// IsExpired reports whether the token should be treated as expired. A
// missing or unreadable exp claim counts as expired.
func IsExpired(token string) bool {
	return isExpiredAt(token, time.Now())
}

func isExpiredAt(token string, now time.Time) bool {
	claims := Decode(token)
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.UnixMilli() < now.UnixMilli()
}

// ExpirationTime returns the wall-clock expiry of the token, or the zero
// time when the exp claim is absent or unreadable. Callers persisting this
// as a cookie expiry treat the zero value as already expired.
func ExpirationTime(token string) time.Time {
	claims := Decode(token)
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// ExpirationUnixMilli returns exp scaled to milliseconds, or 0 when the
// claim is absent or unreadable.
func ExpirationUnixMilli(token string) int64 {
	claims := Decode(token)
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Time.Unix() * 1000
}
