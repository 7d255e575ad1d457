package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"lab-booking/internal/data/entity"
	"lab-booking/internal/dto/request"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestAssignRole(t *testing.T) {
	mem := newMemStore()
	svc := NewUserService(mem.repository(), zap.NewNop())

	lab := uuid.New()
	mem.labs[lab] = &entity.Lab{Base: entity.Base{ID: lab}, Name: "North", IsActive: true}
	user := &entity.User{Base: entity.Base{ID: uuid.New()}, Username: "tech", Role: entity.RoleUser, IsActive: true}
	mem.users[user.ID] = user

	labStr := lab.String()
	unknown := uuid.NewString()

	if _, err := svc.AssignRole(context.Background(), user.ID.String(), &request.AssignRoleRequest{Role: "local_admin"}); !errors.Is(err, ErrValidation) {
		t.Errorf("local_admin without lab: err = %v, want ErrValidation", err)
	}
	if _, err := svc.AssignRole(context.Background(), user.ID.String(), &request.AssignRoleRequest{Role: "local_admin", AssignedLab: &unknown}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown lab: err = %v, want ErrNotFound", err)
	}
	if _, err := svc.AssignRole(context.Background(), user.ID.String(), &request.AssignRoleRequest{Role: "superuser"}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown role: err = %v, want ErrValidation", err)
	}

	resp, err := svc.AssignRole(context.Background(), user.ID.String(), &request.AssignRoleRequest{Role: "local_admin", AssignedLab: &labStr})
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if resp.Role != entity.RoleLocalAdmin || resp.AssignedLab == nil || *resp.AssignedLab != labStr {
		t.Errorf("got %+v", resp)
	}

	// staff are not lab scoped, so the lab is dropped
	resp, err = svc.AssignRole(context.Background(), user.ID.String(), &request.AssignRoleRequest{Role: "staff", AssignedLab: &labStr})
	if err != nil {
		t.Fatalf("AssignRole staff: %v", err)
	}
	if resp.AssignedLab != nil || mem.users[user.ID].AssignedLab != nil {
		t.Errorf("staff kept a lab assignment")
	}
}

func TestDeleteUser_RevokesSessions(t *testing.T) {
	mem := newMemStore()
	svc := NewUserService(mem.repository(), zap.NewNop())

	user := &entity.User{Base: entity.Base{ID: uuid.New()}, Email: "gone@example.com", IsActive: true}
	mem.users[user.ID] = user
	token := uuid.New()
	mem.sessions[token.String()] = &entity.Session{UserID: user.ID, Token: token}

	if err := svc.DeleteUser(context.Background(), user.ID.String()); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if mem.users[user.ID].DeletedAt == nil {
		t.Errorf("user not soft deleted")
	}
	if mem.sessions[token.String()].RevokedAt == nil {
		t.Errorf("session not revoked")
	}

	if _, err := svc.GetProfile(context.Background(), user.ID.String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("profile of deleted user: err = %v, want ErrNotFound", err)
	}
}

func TestGetAllUsers_RoleFilter(t *testing.T) {
	mem := newMemStore()
	svc := NewUserService(mem.repository(), zap.NewNop())

	for i, role := range []entity.UserRole{entity.RoleUser, entity.RoleUser, entity.RoleStaff} {
		u := &entity.User{Base: entity.Base{ID: uuid.New()}, Username: fmt.Sprintf("u%d", i), Role: role, IsActive: true}
		mem.users[u.ID] = u
	}

	staff := "staff"
	cases := []struct {
		name      string
		role      *string
		wantTotal int64
		wantErr   error
	}{
		{"everyone", nil, 3, nil},
		{"staff only", &staff, 1, nil},
		{"unknown role", ptr("janitor"), 0, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := svc.GetAllUsers(context.Background(), &request.UserFilterRequest{Role: tc.role})
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetAllUsers: %v", err)
			}
			if page.Pagination.Total != tc.wantTotal || int64(len(page.Data)) != tc.wantTotal {
				t.Errorf("got %d rows, total %d, want %d", len(page.Data), page.Pagination.Total, tc.wantTotal)
			}
			if page.Pagination.Page != 1 || page.Pagination.PerPage != 10 {
				t.Errorf("pagination not normalized: %+v", page.Pagination)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
