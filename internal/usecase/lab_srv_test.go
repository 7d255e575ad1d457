package usecase

import (
	"context"
	"errors"
	"testing"

	"lab-booking/internal/authz"
	"lab-booking/internal/data/entity"
	"lab-booking/internal/dto/request"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestAddCatalogItem_Scoping(t *testing.T) {
	mem := newMemStore()
	svc := NewLabService(mem.repository(), zap.NewNop())

	lab := uuid.New()
	mem.labs[lab] = &entity.Lab{Base: entity.Base{ID: lab}, Name: "North", IsActive: true}
	req := &request.CreateCatalogItemRequest{Kind: "test", Name: "Glucose", Price: "7.5"}

	cases := []struct {
		name    string
		p       *authz.Principal
		wantErr error
	}{
		{"admin", authz.NewPrincipal(uuid.New(), "admin", nil), nil},
		{"own local admin", localAdminOf(lab), nil},
		{"other local admin", localAdminOf(uuid.New()), authz.ErrResourceScopeMismatch},
		{"staff", authz.NewPrincipal(uuid.New(), "staff", nil), authz.ErrRoleMismatch},
		{"anonymous", nil, authz.ErrUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item, err := svc.AddCatalogItem(context.Background(), tc.p, lab.String(), req)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddCatalogItem: %v", err)
			}
			if !item.Price.Equal(decimal.RequireFromString("7.50")) {
				t.Errorf("price = %s", item.Price)
			}
		})
	}

	neg := &request.CreateCatalogItemRequest{Kind: "test", Name: "Glucose", Price: "-1"}
	if _, err := svc.AddCatalogItem(context.Background(), localAdminOf(lab), lab.String(), neg); !errors.Is(err, ErrValidation) {
		t.Errorf("negative price: err = %v, want ErrValidation", err)
	}
}

func TestGetLab_SplitsCatalog(t *testing.T) {
	mem := newMemStore()
	svc := NewLabService(mem.repository(), zap.NewNop())

	admin := authz.NewPrincipal(uuid.New(), "admin", nil)
	created, err := svc.CreateLab(context.Background(), &request.CreateLabRequest{Name: "South"})
	if err != nil {
		t.Fatalf("CreateLab: %v", err)
	}

	for _, item := range []request.CreateCatalogItemRequest{
		{Kind: "test", Name: "TSH", Price: "20"},
		{Kind: "test", Name: "Vitamin D", Price: "35"},
		{Kind: "package", Name: "Thyroid Profile", Price: "50"},
	} {
		if _, err := svc.AddCatalogItem(context.Background(), admin, created.ID, &item); err != nil {
			t.Fatalf("AddCatalogItem(%s): %v", item.Name, err)
		}
	}

	detail, err := svc.GetLab(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetLab: %v", err)
	}
	if len(detail.Tests) != 2 || len(detail.Packages) != 1 {
		t.Errorf("got %d tests and %d packages", len(detail.Tests), len(detail.Packages))
	}

	if _, err := svc.GetLab(context.Background(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown lab: err = %v, want ErrNotFound", err)
	}
}
