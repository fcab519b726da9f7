package usecase

import (
	"context"
	"net/http"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
)

type AuditLogUsecase struct {
	logs repo.AuditLogRepository
}

func NewAuditLogUsecase(logs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs}
}

type ListAuditLogsInput struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// 新しい順
func (u *AuditLogUsecase) List(ctx context.Context, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if in.Limit == 0 {
		in.Limit = 50
	}
	if in.Limit < 1 || in.Limit > 200 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	q := repo.AuditLogQuery{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		From:        in.From,
		To:          in.To,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		if !a.Valid() {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		q.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		if !rt.Valid() {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		q.ResourceType = &rt
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return nil, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	logs, err := u.logs.Search(ctx, q)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}
