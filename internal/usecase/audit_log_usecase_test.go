package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
	"ecshop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditLogUsecase_List_Filter(t *testing.T) {
	logs := new(AuditRepoMock)
	actor := int64(1)
	logs.On("Search", mock.Anything, mock.MatchedBy(func(f repo.AuditLogQuery) bool {
		return f.Limit == 50 &&
			f.ActorUserID != nil && *f.ActorUserID == 1 &&
			f.Action != nil && *f.Action == model.AuditActionForceLogout &&
			f.ResourceType == nil
	})).Return([]model.AuditLog{{ID: 1}}, nil)

	out, err := usecase.NewAuditLogUsecase(logs).List(context.Background(), usecase.ListAuditLogsInput{
		ActorUserID: &actor,
		Action:      "FORCE_LOGOUT",
	})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	logs.AssertExpectations(t)
}

func TestAuditLogUsecase_List_BadPaging(t *testing.T) {
	from := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []usecase.ListAuditLogsInput{
		{Limit: 201},
		{Limit: -1},
		{Offset: -5},
		{Action: "DROP_TABLE"},
		{ResourceType: "payment"},
		{From: &from, To: &to},
	} {
		logs := new(AuditRepoMock)
		_, err := usecase.NewAuditLogUsecase(logs).List(context.Background(), in)
		requireHTTPError(t, err, http.StatusBadRequest)
		logs.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	}
}
