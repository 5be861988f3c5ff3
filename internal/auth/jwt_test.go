package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	j := JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}

	token, expiresAt, err := j.Sign(Claims{UserID: 42, TeamID: 7, Role: "owner"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("expiry must be in the future")
	}

	claims, err := j.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 || claims.TeamID != 7 || claims.Role != "owner" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "fba-fantasy" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := JWT{Secret: []byte("secret-a"), TokenTTL: time.Hour}
	token, _, err := signer.Sign(Claims{UserID: 1, Role: "owner"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	verifier := JWT{Secret: []byte("secret-b")}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	j := JWT{Secret: []byte("test-secret")}
	token, _, err := j.Sign(Claims{
		UserID: 1,
		Role:   "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := j.Verify(token); err == nil {
		t.Fatal("expired token must not verify")
	}
}

func TestIdentityAuthority(t *testing.T) {
	adminID := Identity{UserID: 1, Role: RoleAdmin}
	owner := Identity{UserID: 101, TeamID: 4, Role: "owner"}
	anon := Identity{}

	if !adminID.IsAdmin() || owner.IsAdmin() {
		t.Fatal("role check broken")
	}
	if !adminID.OwnsTeam(99) {
		t.Fatal("admins act for every team")
	}
	if !owner.OwnsTeam(4) || owner.OwnsTeam(5) {
		t.Fatal("owners act only for their own team")
	}
	if anon.OwnsTeam(0) {
		t.Fatal("a zero team id never grants ownership")
	}
}
