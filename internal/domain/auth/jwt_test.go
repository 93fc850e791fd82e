package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "prorab",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:    "user-1",
		Email:     "foreman@example.com",
		Roles:     []string{"foreman"},
		SessionID: "sess-42",
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))
	tokenString := signToken(t, testSecret, jwt.SigningMethodHS256, validClaims())

	uc, err := svc.ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if uc.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", uc.UserID)
	}
	if uc.Email != "foreman@example.com" {
		t.Errorf("Email = %q", uc.Email)
	}
	if len(uc.Roles) != 1 || uc.Roles[0] != "foreman" {
		t.Errorf("Roles = %v", uc.Roles)
	}
	if uc.SessionID != "sess-42" {
		t.Errorf("SessionID = %q", uc.SessionID)
	}
}

func TestValidateTokenFallsBackToSubject(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))
	claims := validClaims()
	claims.UserID = ""

	uc, err := svc.ValidateToken(signToken(t, testSecret, jwt.SigningMethodHS256, claims))
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if uc.UserID != "user-1" {
		t.Errorf("UserID = %q, want subject user-1", uc.UserID)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))
	tokenString := signToken(t, "other-secret", jwt.SigningMethodHS256, validClaims())

	if _, err := svc.ValidateToken(tokenString); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	if _, err := svc.ValidateToken(signToken(t, testSecret, jwt.SigningMethodHS256, claims)); err == nil {
		t.Error("expired token accepted")
	}
}

func TestValidateTokenLeewayCoversClockSkew(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-10 * time.Second))

	if _, err := svc.ValidateToken(signToken(t, testSecret, jwt.SigningMethodHS256, claims)); err != nil {
		t.Errorf("token within leeway rejected: %v", err)
	}
}

func TestValidateTokenRejectsWrongIssuer(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))
	claims := validClaims()
	claims.Issuer = "someone-else"

	if _, err := svc.ValidateToken(signToken(t, testSecret, jwt.SigningMethodHS256, claims)); err == nil {
		t.Error("token from a different issuer accepted")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(testSecret))
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Error("malformed token accepted")
	}
}
