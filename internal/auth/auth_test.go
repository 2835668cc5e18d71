package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"client", "partner", "admin"} {
		role, err := ParseRole(s)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", s, err)
		}
		if string(role) != s {
			t.Fatalf("ParseRole(%q) = %s", s, role)
		}
	}

	for _, s := range []string{"", "driver", "Client", "superadmin"} {
		if _, err := ParseRole(s); !errors.Is(err, ErrUnknownRole) {
			t.Errorf("ParseRole(%q) = %v, want ErrUnknownRole", s, err)
		}
	}
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParserParse(t *testing.T) {
	parser := NewParser("test-secret")
	now := time.Now()

	valid := signToken(t, "test-secret", Claims{
		Role: "partner",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "partner-42",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	p, err := parser.Parse(valid)
	if err != nil {
		t.Fatalf("parse valid token: %v", err)
	}
	if p.ID != "partner-42" || p.Role != RolePartner {
		t.Fatalf("unexpected principal: %+v", p)
	}

	wrongSecret := signToken(t, "other-secret", Claims{
		Role: "client",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "c1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	if _, err := parser.Parse(wrongSecret); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: got %v, want ErrInvalidToken", err)
	}

	expired := signToken(t, "test-secret", Claims{
		Role: "client",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "c1",
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
	})
	if _, err := parser.Parse(expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v, want ErrInvalidToken", err)
	}

	badRole := signToken(t, "test-secret", Claims{
		Role: "driver",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "d1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	if _, err := parser.Parse(badRole); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unknown role: got %v, want ErrInvalidToken", err)
	}

	noSubject := signToken(t, "test-secret", Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	if _, err := parser.Parse(noSubject); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("missing subject: got %v, want ErrInvalidToken", err)
	}
}
