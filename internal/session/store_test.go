package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	opaqueTokenValue = "9f3c2d1e8a7b6c5d4e3f2a1b0c9d8e7f"
	signingKeyValue  = "test-signing-key"
)

func signedToken(test *testing.T, expiry time.Time) string {
	test.Helper()
	claims := jwt.MapClaims{"exp": expiry.Unix(), "sub": "learner-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKeyValue))
	if err != nil {
		test.Fatalf("sign token: %v", err)
	}
	return token
}

func TestMemoryStoreRoundTrip(test *testing.T) {
	test.Parallel()
	store := NewMemoryStore()

	if _, ok := store.Token(); ok {
		test.Fatalf("expected empty store")
	}
	if err := store.SetToken(opaqueTokenValue); err != nil {
		test.Fatalf("set token: %v", err)
	}
	token, ok := store.Token()
	if !ok || token != opaqueTokenValue {
		test.Fatalf("expected stored token, got %q", token)
	}
	if err := store.ClearToken(); err != nil {
		test.Fatalf("clear token: %v", err)
	}
	if _, ok := store.Token(); ok {
		test.Fatalf("expected cleared store")
	}
}

func TestTokenExpiryReadsJWTClaim(test *testing.T) {
	test.Parallel()
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(test, expiry)

	got, err := TokenExpiry(token)
	if err != nil {
		test.Fatalf("token expiry: %v", err)
	}
	if !got.Equal(expiry) {
		test.Fatalf("expected expiry %v, got %v", expiry, got)
	}
}

func TestTokenExpiryRejectsOpaqueTokens(test *testing.T) {
	test.Parallel()
	if _, err := TokenExpiry(opaqueTokenValue); !errors.Is(err, ErrNoExpiry) {
		test.Fatalf("expected ErrNoExpiry, got %v", err)
	}
}

func TestExpired(test *testing.T) {
	test.Parallel()
	now := time.Now()
	testCases := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "future expiry", token: signedToken(test, now.Add(time.Hour)), want: false},
		{name: "past expiry", token: signedToken(test, now.Add(-time.Hour)), want: true},
		{name: "opaque token never expires locally", token: opaqueTokenValue, want: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			if got := Expired(testCase.token, now); got != testCase.want {
				test.Fatalf("expected expired=%v, got %v", testCase.want, got)
			}
		})
	}
}
