package usecase

import (
	"context"
	"fmt"
	"time"

	"lab-booking/internal/authz"
	"lab-booking/internal/data/entity"
	"lab-booking/internal/data/repository"
	"lab-booking/internal/dto/request"
	"lab-booking/internal/dto/response"
	"lab-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LabService interface {
	ListLabs(ctx context.Context, req *request.LabFilterRequest) (*response.PaginatedResponse[response.LabResponse], error)
	GetLab(ctx context.Context, labID string) (*response.LabDetailResponse, error)
	CreateLab(ctx context.Context, req *request.CreateLabRequest) (*response.LabResponse, error)
	AddCatalogItem(ctx context.Context, p *authz.Principal, labID string, req *request.CreateCatalogItemRequest) (*response.CatalogItemResponse, error)
}

type labService struct {
	labRepo     repository.LabRepository
	catalogRepo repository.CatalogRepository
	log         *zap.Logger
}

func NewLabService(repo *repository.Repository, log *zap.Logger) LabService {
	return &labService{
		labRepo:     repo.Lab,
		catalogRepo: repo.Catalog,
		log:         log.With(zap.String("service", "lab")),
	}
}

func (s *labService) ListLabs(ctx context.Context, req *request.LabFilterRequest) (*response.PaginatedResponse[response.LabResponse], error) {
	req.Normalize()

	labs, err := s.labRepo.FindAll(ctx, req.Limit(), req.Offset(), req.Name)
	if err != nil {
		return nil, fmt.Errorf("get labs: %w", err)
	}

	total, err := s.labRepo.CountAll(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("count labs: %w", err)
	}

	out := make([]response.LabResponse, len(labs))
	for i, lab := range labs {
		out[i] = response.LabToResponse(lab)
	}

	return response.NewPaginatedResponse(out, req.Page, req.PerPage, total), nil
}

func (s *labService) GetLab(ctx context.Context, labID string) (*response.LabDetailResponse, error) {
	lab, err := s.findLab(ctx, labID)
	if err != nil {
		return nil, err
	}

	items, err := s.catalogRepo.FindByLabID(ctx, lab.ID)
	if err != nil {
		return nil, fmt.Errorf("get lab catalog: %w", err)
	}

	detail := &response.LabDetailResponse{
		LabResponse: response.LabToResponse(lab),
		Tests:       []response.CatalogItemResponse{},
		Packages:    []response.CatalogItemResponse{},
	}
	for _, item := range items {
		switch item.Kind {
		case entity.CatalogKindTest:
			detail.Tests = append(detail.Tests, response.CatalogItemToResponse(item))
		case entity.CatalogKindPackage:
			detail.Packages = append(detail.Packages, response.CatalogItemToResponse(item))
		}
	}

	return detail, nil
}

func (s *labService) CreateLab(ctx context.Context, req *request.CreateLabRequest) (*response.LabResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	now := time.Now()
	lab := &entity.Lab{
		Base:     entity.NewBase(now),
		Name:     req.Name,
		Address:  req.Address,
		Phone:    req.Phone,
		IsActive: true,
	}

	if err := s.labRepo.Create(ctx, lab); err != nil {
		return nil, fmt.Errorf("create lab: %w", err)
	}

	s.log.Info("Lab created", zap.String("lab_id", lab.ID.String()), zap.String("name", lab.Name))

	resp := response.LabToResponse(lab)
	return &resp, nil
}

// AddCatalogItem is open to admins and to the local_admin of that lab.
func (s *labService) AddCatalogItem(ctx context.Context, p *authz.Principal, labID string, req *request.CreateCatalogItemRequest) (*response.CatalogItemResponse, error) {
	lab, err := s.findLab(ctx, labID)
	if err != nil {
		return nil, err
	}

	capability := authz.CapabilityLocalAdmin
	if p.IsAdmin() {
		capability = authz.CapabilityAdmin
	}
	if err := authz.Authorize(p, capability, authz.Resource{LabID: lab.ID}).Err(); err != nil {
		return nil, err
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("%s", utils.FormatValidationErrors(errs))
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, invalid("price must be a non-negative amount")
	}

	now := time.Now()
	item := &entity.CatalogItem{
		BaseNoDelete: entity.NewBaseNoDelete(now),
		LabID:        lab.ID,
		Kind:         entity.CatalogKind(req.Kind),
		Name:         req.Name,
		Description:  req.Description,
		Price:        price.Round(2),
		IsActive:     true,
	}

	if err := s.catalogRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create catalog item: %w", err)
	}

	s.log.Info("Catalog item added",
		zap.String("lab_id", lab.ID.String()),
		zap.String("item_id", item.ID.String()),
		zap.String("kind", string(item.Kind)),
		zap.String("price", item.Price.StringFixed(2)),
	)

	resp := response.CatalogItemToResponse(item)
	return &resp, nil
}

func (s *labService) findLab(ctx context.Context, labID string) (*entity.Lab, error) {
	id, err := uuid.Parse(labID)
	if err != nil {
		return nil, invalid("invalid lab ID format %s", labID)
	}

	lab, err := s.labRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find lab: %w", err)
	}
	if lab == nil || !lab.IsActive {
		return nil, notFound("lab", labID)
	}

	return lab, nil
}
