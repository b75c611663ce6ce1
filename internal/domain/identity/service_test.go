package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthconnect/healthconnect/internal/platform/auth"
)

func newTestService() *Service {
	return NewService(NewUserRepoMem(), auth.NewTokenIssuer("test-secret", time.Hour))
}

func TestRegister_CreatesAccountAndToken(t *testing.T) {
	svc := newTestService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha Verma",
		Email:    "asha@example.com",
		Password: "secret123",
		Role:     RolePatient,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Token == "" {
		t.Error("expected a token")
	}
	if result.User.PasswordHash == "secret123" {
		t.Error("password must not be stored in plain text")
	}
	if result.User.Role != RolePatient {
		t.Errorf("expected role patient, got %q", result.User.Role)
	}
}

func TestRegister_DefaultsToPatientRole(t *testing.T) {
	svc := newTestService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha Verma",
		Email:    "asha@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.Role != RolePatient {
		t.Errorf("expected default role patient, got %q", result.User.Role)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService()
	in := RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret123"}

	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.com", Password: "secret123"}},
		{"missing email", RegisterInput{Name: "A", Password: "secret123"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "secret123"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.com", Password: "abc"}},
		{"bad role", RegisterInput{Name: "A", Email: "a@b.com", Password: "secret123", Role: "superuser"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.in); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLogin_Success(t *testing.T) {
	svc := newTestService()
	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Asha", Email: "asha@example.com", Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.Login(context.Background(), "asha@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Error("expected a token")
	}
}

func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Asha", Email: "Asha@Example.com", Password: "secret123",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(context.Background(), "asha@example.com", "secret123"); err != nil {
		t.Fatalf("login with lowercased email: %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(context.Background(), RegisterInput{
		Name: "Asha", Email: "asha@example.com", Password: "secret123",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Login(context.Background(), "asha@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestService()
	_, err := svc.Login(context.Background(), "nobody@example.com", "secret123")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
