package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"lab-booking/internal/authz"
	"lab-booking/internal/data/entity"
	"lab-booking/internal/dto/request"
	"lab-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newAuthFixture() (*memStore, AuthService) {
	mem := newMemStore()
	config := &utils.Config{JWT: utils.JWTConfig{Secret: "test-secret", Issuer: "lab-booking", ExpiryHours: 1}}
	return mem, NewAuthService(mem.repository(), config, zap.NewNop())
}

func register(t *testing.T, svc AuthService) string {
	t.Helper()
	resp, err := svc.Register(context.Background(), &request.RegisterRequest{
		Username: "patient",
		Email:    "patient@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return resp.Token
}

func TestRegisterAuthenticateLogout(t *testing.T) {
	mem, svc := newAuthFixture()
	token := register(t, svc)

	principal, session, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if principal.Role != authz.RoleUser || principal.AssignedLab != nil {
		t.Errorf("new account principal = %+v, want plain user", principal)
	}
	if _, ok := mem.sessions[session]; !ok {
		t.Errorf("session %s not stored", session)
	}

	if err := svc.Logout(context.Background(), session); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, authz.ErrUnauthenticated) {
		t.Errorf("token after logout: err = %v, want unauthenticated", err)
	}
}

func TestAuthenticate_ReadsRoleFromUser(t *testing.T) {
	mem, svc := newAuthFixture()
	token := register(t, svc)

	lab := uuid.New()
	for _, u := range mem.users {
		u.Role = entity.RoleLocalAdmin
		u.AssignedLab = &lab
	}

	principal, _, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !principal.IsLocalAdmin() || *principal.AssignedLab != lab {
		t.Errorf("principal = %+v, want local admin of %s", principal, lab)
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	mem, svc := newAuthFixture()
	token := register(t, svc)

	if _, _, err := svc.Authenticate(context.Background(), "garbage"); !errors.Is(err, authz.ErrUnauthenticated) {
		t.Errorf("garbage token: err = %v", err)
	}

	for _, u := range mem.users {
		u.IsActive = false
	}
	_, _, err := svc.Authenticate(context.Background(), token)
	if !errors.Is(err, ErrAccountInactive) || !errors.Is(err, authz.ErrUnauthenticated) {
		t.Errorf("inactive user: err = %v", err)
	}
}

func TestLogin(t *testing.T) {
	mem, svc := newAuthFixture()
	register(t, svc)

	for _, identifier := range []string{"patient", "patient@example.com"} {
		resp, err := svc.Login(context.Background(), &request.LoginRequest{Username: identifier, Password: "secret123"})
		if err != nil {
			t.Fatalf("Login(%s): %v", identifier, err)
		}
		if resp.Token == "" || resp.Role != entity.RoleUser {
			t.Errorf("Login(%s) = %+v", identifier, resp)
		}
	}

	if _, err := svc.Login(context.Background(), &request.LoginRequest{Username: "patient", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := svc.Login(context.Background(), &request.LoginRequest{Username: "nobody", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}

	for _, u := range mem.users {
		u.IsActive = false
	}
	if _, err := svc.Login(context.Background(), &request.LoginRequest{Username: "patient", Password: "secret123"}); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("inactive: err = %v", err)
	}
}

func TestRegister_Duplicates(t *testing.T) {
	_, svc := newAuthFixture()
	register(t, svc)

	cases := []request.RegisterRequest{
		{Username: "other", Email: "patient@example.com", Password: "secret123"},
		{Username: "patient", Email: "other@example.com", Password: "secret123"},
	}
	for _, req := range cases {
		if _, err := svc.Register(context.Background(), &req); !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("Register(%s, %s): err = %v, want ErrAlreadyExists", req.Username, req.Email, err)
		}
	}

	if _, err := svc.Register(context.Background(), &request.RegisterRequest{Username: "x", Email: "bad", Password: "1"}); !errors.Is(err, ErrValidation) {
		t.Errorf("invalid input: err = %v, want ErrValidation", err)
	}
}

func TestLogin_RecordsClient(t *testing.T) {
	mem, svc := newAuthFixture()
	register(t, svc)

	_, err := svc.Login(context.Background(), &request.LoginRequest{
		Username: "patient",
		Password: "secret123",
		Client:   request.ClientInfo{UserAgent: "curl/8.0", IPAddress: "203.0.113.7"},
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	found := false
	for _, s := range mem.sessions {
		if s.UserAgent != nil && *s.UserAgent == "curl/8.0" && s.IPAddress != nil && *s.IPAddress == "203.0.113.7" {
			found = true
		}
	}
	if !found {
		t.Error("no session carries the client details")
	}
}

func TestPurgeStaleSessions(t *testing.T) {
	mem, svc := newAuthFixture()

	now := time.Now()
	longAgo := now.AddDate(0, 0, -30)
	keep := &entity.Session{Token: uuid.New(), ExpiresAt: now.Add(time.Hour)}
	expired := &entity.Session{Token: uuid.New(), ExpiresAt: longAgo}
	revoked := &entity.Session{Token: uuid.New(), ExpiresAt: now.Add(time.Hour), RevokedAt: &longAgo}
	for _, s := range []*entity.Session{keep, expired, revoked} {
		mem.sessions[s.Token.String()] = s
	}

	purged, err := svc.PurgeStaleSessions(context.Background())
	if err != nil {
		t.Fatalf("PurgeStaleSessions: %v", err)
	}
	if purged != 2 {
		t.Errorf("purged %d sessions, want 2", purged)
	}
	if _, ok := mem.sessions[keep.Token.String()]; !ok {
		t.Error("live session was purged")
	}
}
