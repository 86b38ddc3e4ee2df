package carriers

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/haulbid/bidboard-backend/pkg/db/models"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/pagination"
)

// Service defines carrier profile operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.CarrierProfile, error)
	Update(ctx context.Context, id uuid.UUID, input RegisterInput) (*models.CarrierProfile, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CarrierProfile, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
}

// RegisterInput captures a new carrier profile.
type RegisterInput struct {
	Name         string  `json:"name" validate:"required,min=2"`
	MCNumber     *string `json:"mcNumber,omitempty"`
	DOTNumber    *string `json:"dotNumber,omitempty"`
	ContactEmail *string `json:"contactEmail,omitempty" validate:"omitempty,email"`
}

// ListParams configures carrier search and pagination.
type ListParams struct {
	Search string
	Page   pagination.Params
}

// ListResult wraps a page of carrier profiles.
type ListResult struct {
	Items []models.CarrierProfile `json:"items"`
	Meta  pagination.Meta         `json:"meta"`
}

// NewService wires carrier dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "carriers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.CarrierProfile, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier name required")
	}

	profile := &models.CarrierProfile{
		Name:         name,
		MCNumber:     normalizeRef(input.MCNumber),
		DOTNumber:    normalizeRef(input.DOTNumber),
		ContactEmail: normalizeRef(input.ContactEmail),
	}
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create carrier profile")
	}
	return profile, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input RegisterInput) (*models.CarrierProfile, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier name required")
	}

	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load carrier profile")
	}
	if profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "carrier not found")
	}

	profile.Name = name
	profile.MCNumber = normalizeRef(input.MCNumber)
	profile.DOTNumber = normalizeRef(input.DOTNumber)
	profile.ContactEmail = normalizeRef(input.ContactEmail)
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update carrier profile")
	}
	return profile, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.CarrierProfile, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load carrier profile")
	}
	if profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "carrier not found")
	}
	return profile, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	page := pagination.Normalize(params.Page, pagination.DefaultPageSize, pagination.MaxPageSize)
	rows, total, err := s.repo.List(ctx, params.Search, page.PageSize, page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list carriers")
	}
	return &ListResult{
		Items: rows,
		Meta:  pagination.BuildMeta(page, total),
	}, nil
}

func normalizeRef(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
