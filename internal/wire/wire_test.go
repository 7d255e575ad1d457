package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lab-booking/internal/adaptor"
	"lab-booking/internal/authz"
	"lab-booking/internal/dto/request"
	"lab-booking/internal/dto/response"
	"lab-booking/internal/usecase"
	"lab-booking/internal/workflow"
	"lab-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tokenAuth maps a bearer token straight to a role.
type tokenAuth map[string]*authz.Principal

func (a tokenAuth) Authenticate(_ context.Context, token string) (*authz.Principal, string, error) {
	p, ok := a[token]
	if !ok {
		return nil, "", usecase.ErrInvalidToken
	}
	return p, uuid.NewString(), nil
}

type stubBookings struct {
	usecase.BookingService
	updateErr error
}

func (s *stubBookings) UpdateStatus(_ context.Context, _ *authz.Principal, id string, req *request.UpdateStatusRequest) (*response.BookingResponse, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &response.BookingResponse{ID: id}, nil
}

func newTestRouter(bookings usecase.BookingService) http.Handler {
	lab := uuid.New()
	auth := tokenAuth{
		"user":  authz.NewPrincipal(uuid.New(), "user", nil),
		"tech":  authz.NewPrincipal(uuid.New(), "lab_technician", nil),
		"local": authz.NewPrincipal(uuid.New(), "local_admin", &lab),
	}
	service := &usecase.Service{Booking: bookings}
	handler := adaptor.NewHandler(service, 1<<20, zap.NewNop())
	config := &utils.Config{App: utils.AppConfig{AllowedOrigins: []string{"*"}}}
	return NewRouter(handler, auth, config, zap.NewNop())
}

func TestRouter_StatusUpdate(t *testing.T) {
	cases := []struct {
		name      string
		token     string
		updateErr error
		body      string
		wantCode  int
		wantField map[string]string
	}{
		{name: "no token", body: `{"status":"confirmed"}`, wantCode: http.StatusUnauthorized},
		{name: "unknown token", token: "nobody", body: `{"status":"confirmed"}`, wantCode: http.StatusUnauthorized},
		{
			name:      "patient on operator route",
			token:     "user",
			body:      `{"status":"confirmed"}`,
			wantCode:  http.StatusForbidden,
			wantField: map[string]string{"reason": "role_mismatch", "fallback": "/"},
		},
		{name: "technician", token: "tech", body: `{"status":"confirmed"}`, wantCode: http.StatusOK},
		{name: "unknown status", token: "tech", body: `{"status":"archived"}`, wantCode: http.StatusBadRequest},
		{
			name:      "other lab",
			token:     "local",
			body:      `{"status":"confirmed"}`,
			updateErr: &authz.DenialError{Reason: authz.ReasonResourceScopeMismatch, Fallback: authz.FallbackHome},
			wantCode:  http.StatusForbidden,
			wantField: map[string]string{"reason": "resource_scope_mismatch", "fallback": "/"},
		},
		{
			name:      "illegal move",
			token:     "tech",
			body:      `{"status":"completed"}`,
			updateErr: &workflow.RejectionError{Kind: workflow.KindNoSuchEdge, From: "pending", To: "completed"},
			wantCode:  http.StatusUnprocessableEntity,
		},
		{
			name:      "lost race",
			token:     "tech",
			body:      `{"status":"confirmed"}`,
			updateErr: fmt.Errorf("update: %w", usecase.ErrConcurrencyConflict),
			wantCode:  http.StatusConflict,
		},
		{
			name:      "missing booking",
			token:     "tech",
			body:      `{"status":"confirmed"}`,
			updateErr: fmt.Errorf("booking x: %w", usecase.ErrNotFound),
			wantCode:  http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&stubBookings{updateErr: tc.updateErr})

			req := httptest.NewRequest(http.MethodPatch, "/api/staff/bookings/"+uuid.NewString()+"/status", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d (body %s)", rec.Code, tc.wantCode, rec.Body.String())
			}

			for key, want := range tc.wantField {
				var body struct {
					Data map[string]string `json:"data"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Data[key] != want {
					t.Errorf("%s = %q, want %q", key, body.Data[key], want)
				}
			}
		})
	}
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&stubBookings{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}
