package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type LocationUsecase struct {
	locationRepo repo.LocationRepository
}

// DI
func NewLocationUsecase(locationRepo repo.LocationRepository) *LocationUsecase {
	return &LocationUsecase{locationRepo: locationRepo}
}

func (u *LocationUsecase) ListLocations(ctx context.Context) ([]model.Location, error) {
	locations, err := u.locationRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return locations, nil
}

func (u *LocationUsecase) GetLocation(ctx context.Context, locationID int64) (model.Location, error) {
	if locationID <= 0 {
		return model.Location{}, NewHTTPError(http.StatusBadRequest, "invalid location id")
	}

	l, err := u.locationRepo.FindByID(ctx, locationID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Location{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Location{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return l, nil
}

type AdminCreateLocationInput struct {
	Code     string
	Name     string
	Address  string
	IsActive bool
}

func (u *LocationUsecase) AdminCreateLocation(ctx context.Context, adminUserID int64, in AdminCreateLocationInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Code) == "" {
		return 0, NewHTTPError(http.StatusBadRequest, "code required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return 0, NewHTTPError(http.StatusBadRequest, "name required")
	}

	now := time.Now()
	l, err := u.locationRepo.Create(ctx, model.Location{
		Code:      strings.TrimSpace(in.Code),
		Name:      strings.TrimSpace(in.Name),
		Address:   in.Address,
		IsActive:  in.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if errors.Is(err, repo.ErrConflict) {
		return 0, NewHTTPError(http.StatusConflict, "code already exists")
	}
	if err != nil {
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return l.ID, nil
}

func (u *LocationUsecase) AdminUpdateLocation(ctx context.Context, adminUserID int64, locationID int64, in AdminCreateLocationInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if locationID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid location id")
	}
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}

	err := u.locationRepo.Update(ctx, model.Location{
		ID:        locationID,
		Name:      strings.TrimSpace(in.Name),
		Address:   in.Address,
		IsActive:  in.IsActive,
		UpdatedAt: time.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *LocationUsecase) AdminDeleteLocation(ctx context.Context, adminUserID int64, locationID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if locationID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid location id")
	}

	err := u.locationRepo.Delete(ctx, locationID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
