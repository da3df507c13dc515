package services

import (
	"context"
	"errors"
	"testing"

	"github.com/esports-arena/platform/models"
	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	s := NewAuthService(newFakeUserRepo(), testSecret)

	user, token, err := s.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != models.RolePlayer {
		t.Fatalf("new users must be players, got %q", user.Role)
	}
	if user.PasswordHash != "" {
		t.Fatalf("password hash must not leak out of the service")
	}
	if token == "" {
		t.Fatalf("register must issue a token")
	}

	_, loginToken, err := s.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	parsed, err := jwt.Parse(loginToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["role"] != string(models.RolePlayer) {
		t.Fatalf("unexpected role claim: %v", claims["role"])
	}
}

func TestRegisterPasswordTooShort(t *testing.T) {
	s := NewAuthService(newFakeUserRepo(), testSecret)
	_, _, err := s.Register(context.Background(), RegisterInput{
		Name: "Bob", Email: "bob@example.com", Password: "short",
	})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := NewAuthService(newFakeUserRepo(), testSecret)
	input := RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "long enough"}
	if _, _, err := s.Register(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, _, err := s.Register(context.Background(), input); !errors.Is(err, ErrUserEmailConflict) {
		t.Fatalf("expected ErrUserEmailConflict, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := NewAuthService(newFakeUserRepo(), testSecret)
	if _, _, err := s.Register(context.Background(), RegisterInput{
		Name: "Bob", Email: "bob@example.com", Password: "long enough",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := s.Login(context.Background(), LoginInput{Email: "bob@example.com", Password: "wrong password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	_, _, err = s.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
