package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type AuditLogUsecase struct {
	auditLogRepo repo.AuditLogRepository
}

// DI
func NewAuditLogUsecase(auditLogRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditLogRepo: auditLogRepo}
}

// GET /admin/audit-logs の入力DTO
type ListAuditLogsInput struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	Limit        int
	Offset       int
}

func (u *AuditLogUsecase) ListAuditLogs(ctx context.Context, adminUserID int64, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if adminUserID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Limit < 0 || in.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	filter := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		filter.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		filter.ResourceType = &rt
	}

	logs, err := u.auditLogRepo.List(ctx, filter)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
