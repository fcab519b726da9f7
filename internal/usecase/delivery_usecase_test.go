package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"ecshop/internal/authz"
	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
	"ecshop/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDeliveryUC(t *testing.T, r *TxReposMock, pub usecase.OrderEventPublisher) *usecase.DeliveryUsecase {
	t.Helper()
	az, err := authz.NewDefault()
	require.NoError(t, err)
	return usecase.NewDeliveryUsecase(&TxManagerMock{Repos: r}, r.orders, az, pub, fixedClock{now: testNow}, zerolog.Nop())
}

func assignedOrder(personID int64, ds model.DeliveryStatus, s model.OrderStatus) model.Order {
	id := personID
	return model.Order{ID: 5, Status: s, DeliveryStatus: ds, DeliveryPersonID: &id}
}

// =====================
// UpdateDeliveryStatus
// =====================

func TestDeliveryUsecase_UpdateDeliveryStatus_Accept(t *testing.T) {
	r := newTxRepos()
	pub := new(PublisherMock)

	r.orders.On("FindByIDForUpdate", mock.Anything, int64(5)).
		Return(assignedOrder(7, model.DeliveryStatusAssigned, model.OrderStatusAssignedToDelivery), nil)
	r.orders.On("SaveState", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.DeliveryStatus == model.DeliveryStatusAccepted &&
			o.Status == model.OrderStatusDeliveryAccepted &&
			o.DeliveryNotes == "at the gate"
	})).Return(nil)
	r.orders.On("FindByID", mock.Anything, int64(5)).
		Return(assignedOrder(7, model.DeliveryStatusAccepted, model.OrderStatusDeliveryAccepted), nil)
	pub.On("PublishOrderUpdated", mock.Anything, model.OrderUpdatedEvent{OrderID: 5, Status: model.OrderStatusDeliveryAccepted}).Return(nil)

	out, err := newDeliveryUC(t, r, pub).UpdateDeliveryStatus(context.Background(), 7, 5, usecase.UpdateDeliveryStatusInput{
		Action: "accepted",
		Notes:  " at the gate ",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDeliveryAccepted, out.Status)
	r.orders.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestDeliveryUsecase_UpdateDeliveryStatus_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		order      model.Order
		findErr    error
		wantStatus int
	}{
		{name: "unknown action", action: "teleport", wantStatus: http.StatusBadRequest},
		{name: "assign is not a courier action", action: "assign", wantStatus: http.StatusBadRequest},
		{name: "order missing", action: "accepted", findErr: repo.ErrNotFound, wantStatus: http.StatusNotFound},
		{
			name:       "someone else's order",
			action:     "accepted",
			order:      assignedOrder(8, model.DeliveryStatusAssigned, model.OrderStatusAssignedToDelivery),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unassigned order",
			action:     "accepted",
			order:      model.Order{ID: 5, Status: model.OrderStatusProcessing, DeliveryStatus: model.DeliveryStatusNotAssigned},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "skip to in transit",
			action:     "in_transit",
			order:      assignedOrder(7, model.DeliveryStatusAssigned, model.OrderStatusAssignedToDelivery),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "already delivered",
			action:     "failed",
			order:      assignedOrder(7, model.DeliveryStatusDelivered, model.OrderStatusDelivered),
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTxRepos()
			pub := new(PublisherMock)
			r.orders.On("FindByIDForUpdate", mock.Anything, int64(5)).Return(tt.order, tt.findErr)

			_, err := newDeliveryUC(t, r, pub).UpdateDeliveryStatus(context.Background(), 7, 5, usecase.UpdateDeliveryStatusInput{Action: tt.action})
			requireHTTPError(t, err, tt.wantStatus)
			r.orders.AssertNotCalled(t, "SaveState", mock.Anything, mock.Anything)
			pub.AssertNotCalled(t, "PublishOrderUpdated", mock.Anything, mock.Anything)
		})
	}
}

// =====================
// Assign
// =====================

func stubAssign(r *TxReposMock, person *model.User) {
	r.orders.On("FindByIDForUpdate", mock.Anything, int64(5)).
		Return(model.Order{ID: 5, Status: model.OrderStatusReadyForDelivery, DeliveryStatus: model.DeliveryStatusNotAssigned}, nil)
	r.users.On("FindByID", mock.Anything, int64(7)).Return(person, nil)
}

func TestDeliveryUsecase_Assign_ByCustomerService_RecordsContact(t *testing.T) {
	r := newTxRepos()
	pub := new(PublisherMock)
	stubAssign(r, &model.User{ID: 7, Username: "rider", Role: model.RoleDelivery, IsActive: true})

	r.orders.On("AddContactNote", mock.Anything, mock.MatchedBy(func(n *model.ContactNote) bool {
		return n.OrderID == 5 && n.AgentID == 3 && n.Note == "Assigned to delivery person rider"
	})).Return(nil)
	r.orders.On("SaveState", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.Status == model.OrderStatusAssignedToDelivery &&
			o.DeliveryStatus == model.DeliveryStatusAssigned &&
			o.DeliveryPersonID != nil && *o.DeliveryPersonID == 7 &&
			o.CustomerServiceAgentID != nil && *o.CustomerServiceAgentID == 3
	})).Return(nil)
	r.audit.On("Record", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionAssignDelivery && l.ActorUserID == 3
	})).Return(nil)
	r.orders.On("FindByID", mock.Anything, int64(5)).
		Return(assignedOrder(7, model.DeliveryStatusAssigned, model.OrderStatusAssignedToDelivery), nil)
	pub.On("PublishOrderUpdated", mock.Anything, mock.Anything).Return(nil)

	_, err := newDeliveryUC(t, r, pub).Assign(context.Background(), usecase.Actor{ID: 3, Role: model.RoleCustomerService}, 5, 7)
	require.NoError(t, err)
	r.orders.AssertExpectations(t)
	r.audit.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestDeliveryUsecase_Assign_ByAdmin_NoContactNote(t *testing.T) {
	r := newTxRepos()
	stubAssign(r, &model.User{ID: 7, Username: "rider", Role: model.RoleDelivery, IsActive: true})
	r.orders.On("SaveState", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.CustomerServiceAgentID == nil
	})).Return(nil)
	r.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
	r.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5}, nil)

	_, err := newDeliveryUC(t, r, nil).Assign(context.Background(), usecase.Actor{ID: 1, Role: model.RoleAdmin}, 5, 7)
	require.NoError(t, err)
	r.orders.AssertNotCalled(t, "AddContactNote", mock.Anything, mock.Anything)
}

func TestDeliveryUsecase_Assign_NotACourier(t *testing.T) {
	for _, person := range []*model.User{
		{ID: 7, Role: model.RoleUser, IsActive: true},
		{ID: 7, Role: model.RoleDelivery, IsActive: false},
	} {
		r := newTxRepos()
		stubAssign(r, person)

		_, err := newDeliveryUC(t, r, nil).Assign(context.Background(), usecase.Actor{ID: 1, Role: model.RoleAdmin}, 5, 7)
		requireHTTPError(t, err, http.StatusNotFound)
		r.orders.AssertNotCalled(t, "SaveState", mock.Anything, mock.Anything)
	}
}

func TestDeliveryUsecase_Assign_FinalizedOrder(t *testing.T) {
	r := newTxRepos()
	r.orders.On("FindByIDForUpdate", mock.Anything, int64(5)).
		Return(model.Order{ID: 5, Status: model.OrderStatusCancelled, DeliveryStatus: model.DeliveryStatusNotAssigned}, nil)
	r.users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, Role: model.RoleDelivery, IsActive: true}, nil)

	_, err := newDeliveryUC(t, r, nil).Assign(context.Background(), usecase.Actor{ID: 1, Role: model.RoleAdmin}, 5, 7)
	requireHTTPError(t, err, http.StatusConflict)
}

func TestDeliveryUsecase_ListAssigned(t *testing.T) {
	r := newTxRepos()
	r.orders.On("List", mock.Anything, mock.MatchedBy(func(f repo.OrderListFilter) bool {
		return f.DeliveryPersonID != nil && *f.DeliveryPersonID == 7 && len(f.ExcludeDeliveryStatuses) == 2
	})).Return([]model.Order{{ID: 5}}, nil)

	out, err := newDeliveryUC(t, r, nil).ListAssigned(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
