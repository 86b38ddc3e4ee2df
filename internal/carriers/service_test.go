package carriers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/pkg/db/models"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn  func(ctx context.Context, profile *models.CarrierProfile) error
	getByIDFn func(ctx context.Context, id uuid.UUID) (*models.CarrierProfile, error)
	updateFn  func(ctx context.Context, profile *models.CarrierProfile) error
	listFn    func(ctx context.Context, search string, limit, offset int) ([]models.CarrierProfile, int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, profile *models.CarrierProfile) error {
	if f.createFn != nil {
		return f.createFn(ctx, profile)
	}
	profile.ID = uuid.New()
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CarrierProfile, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeRepository) Update(ctx context.Context, profile *models.CarrierProfile) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, profile)
	}
	return nil
}

func (f *fakeRepository) List(ctx context.Context, search string, limit, offset int) ([]models.CarrierProfile, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, search, limit, offset)
	}
	return nil, 0, nil
}

func strPtr(v string) *string { return &v }

func TestRegisterTrimsAndNormalizes(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	profile, err := svc.Register(context.Background(), RegisterInput{
		Name:      "  Fleet One  ",
		MCNumber:  strPtr(" MC-123 "),
		DOTNumber: strPtr("   "),
	})
	if err != nil {
		t.Fatalf("unexpected register error: %v", err)
	}
	if profile.Name != "Fleet One" {
		t.Fatalf("expected trimmed name, got %q", profile.Name)
	}
	if profile.MCNumber == nil || *profile.MCNumber != "MC-123" {
		t.Fatalf("expected trimmed MC number, got %v", profile.MCNumber)
	}
	if profile.DOTNumber != nil {
		t.Fatal("blank DOT number should normalize to nil")
	}
}

func TestRegisterRequiresName(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	_, err := svc.Register(context.Background(), RegisterInput{Name: "   "})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateReplacesMutableFields(t *testing.T) {
	id := uuid.New()
	existing := &models.CarrierProfile{ID: id, Name: "Old Name", MCNumber: strPtr("MC-1")}
	var saved *models.CarrierProfile
	repo := &fakeRepository{
		getByIDFn: func(ctx context.Context, gotID uuid.UUID) (*models.CarrierProfile, error) {
			if gotID != id {
				t.Fatalf("unexpected id %s", gotID)
			}
			return existing, nil
		},
		updateFn: func(ctx context.Context, profile *models.CarrierProfile) error {
			saved = profile
			return nil
		},
	}
	svc, _ := NewService(repo)

	profile, err := svc.Update(context.Background(), id, RegisterInput{
		Name:      "New Name",
		DOTNumber: strPtr("DOT-9"),
	})
	if err != nil {
		t.Fatalf("unexpected update error: %v", err)
	}
	if saved == nil || saved.Name != "New Name" {
		t.Fatal("expected the updated profile to be persisted")
	}
	if profile.MCNumber != nil {
		t.Fatal("omitted MC number should clear the stored value")
	}
	if profile.DOTNumber == nil || *profile.DOTNumber != "DOT-9" {
		t.Fatalf("expected DOT-9, got %v", profile.DOTNumber)
	}
}

func TestUpdateUnknownCarrier(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	_, err := svc.Update(context.Background(), uuid.New(), RegisterInput{Name: "Any"})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetUnknownCarrier(t *testing.T) {
	svc, _ := NewService(&fakeRepository{})

	_, err := svc.Get(context.Background(), uuid.New())
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListNormalizesPagination(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &fakeRepository{
		listFn: func(ctx context.Context, search string, limit, offset int) ([]models.CarrierProfile, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []models.CarrierProfile{{Name: "Fleet One"}}, 31, nil
		},
	}
	svc, _ := NewService(repo)

	result, err := svc.List(context.Background(), ListParams{
		Search: "fleet",
		Page:   pagination.Params{Page: 2, PageSize: 10},
	})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if gotLimit != 10 || gotOffset != 10 {
		t.Fatalf("expected limit 10 offset 10, got %d/%d", gotLimit, gotOffset)
	}
	if result.Meta.TotalPages != 4 {
		t.Fatalf("expected 4 pages for 31 rows, got %d", result.Meta.TotalPages)
	}
}
