package authz

import (
	"testing"

	"ecshop/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	az, err := NewDefault()
	require.NoError(t, err)

	tests := []struct {
		name string
		role model.Role
		cap  Capability
		want bool
	}{
		{"user uses cart", model.RoleUser, CartUse, true},
		{"user cannot read all orders", model.RoleUser, OrdersReadAll, false},
		{"user cannot deliver", model.RoleUser, OrdersDeliver, false},

		// 親ロールの権限を引き継ぐ
		{"delivery inherits user", model.RoleDelivery, WalletUse, true},
		{"delivery delivers", model.RoleDelivery, OrdersDeliver, true},
		{"delivery cannot assign", model.RoleDelivery, OrdersAssign, false},

		{"cs assigns", model.RoleCustomerService, OrdersAssign, true},
		{"cs records contact", model.RoleCustomerService, OrdersContact, true},
		{"cs is chat agent", model.RoleCustomerService, ChatAgent, true},
		{"cs cannot export", model.RoleCustomerService, OrdersExport, false},
		{"cs cannot manage staff", model.RoleCustomerService, StaffManage, false},

		{"admin assigns", model.RoleAdmin, OrdersAssign, true},
		{"admin does not record contact", model.RoleAdmin, OrdersContact, false},
		{"admin manages coupons", model.RoleAdmin, CouponsManage, true},
		{"admin force logout", model.RoleAdmin, UsersForceLogout, true},
		{"admin cannot deliver", model.RoleAdmin, OrdersDeliver, false},
		{"admin uses cart", model.RoleAdmin, CartUse, true},

		{"unknown role", model.Role("guest"), CartUse, false},
		{"empty role", model.Role(""), CartUse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, az.Can(tt.role, tt.cap))
		})
	}
}

func TestNew_InvalidPolicy(t *testing.T) {
	_, err := New([]byte("roles:\n  pirate:\n    capabilities: [cart:use]\n"))
	assert.Error(t, err)

	_, err = New([]byte("roles:\n  user:\n    inherits: [admin]\n"))
	assert.Error(t, err)

	_, err = New([]byte("roles:\n  user:\n    capabilities: [nocolon]\n"))
	assert.Error(t, err)
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability("staff.delivery:read")
	require.NoError(t, err)
	assert.Equal(t, DeliveryStaffRead, c)
	assert.Equal(t, "staff.delivery:read", c.String())

	_, err = ParseCapability(":read")
	assert.Error(t, err)
}
