package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/haulbid/bidboard-backend/pkg/db/models"
	pkgerrors "github.com/haulbid/bidboard-backend/pkg/errors"
	"github.com/haulbid/bidboard-backend/pkg/pagination"
)

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, carrierID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, carrierID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, carrierID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	CarrierID  uuid.UUID
	Page       pagination.Params
	UnreadOnly bool
}

// ListResult wraps one page of notifications.
type ListResult struct {
	Items []models.Notification `json:"items"`
	Meta  pagination.Meta       `json:"meta"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.CarrierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}

	page := pagination.Normalize(params.Page, pagination.DefaultPageSize, pagination.MaxPageSize)
	rows, total, err := s.repo.List(ctx, listNotificationsParams{
		CarrierID:  params.CarrierID,
		Limit:      page.PageSize,
		Offset:     page.Offset(),
		UnreadOnly: params.UnreadOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	return &ListResult{
		Items: rows,
		Meta:  pagination.BuildMeta(page, total),
	}, nil
}

func (s *service) UnreadCount(ctx context.Context, carrierID uuid.UUID) (int64, error) {
	if carrierID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}
	count, err := s.repo.UnreadCount(ctx, carrierID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, carrierID, notificationID uuid.UUID) error {
	if carrierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, carrierID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, carrierID uuid.UUID) (int64, error) {
	if carrierID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "carrier id required")
	}

	count, err := s.repo.MarkAllRead(ctx, carrierID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
