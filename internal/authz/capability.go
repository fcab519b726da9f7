package authz

import (
	"fmt"
	"strings"
)

// resource:action の組
type Capability struct {
	Resource string
	Action   string
}

func (c Capability) String() string {
	return c.Resource + ":" + c.Action
}

func ParseCapability(s string) (Capability, error) {
	res, act, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || res == "" || act == "" {
		return Capability{}, fmt.Errorf("invalid capability %q", s)
	}
	return Capability{Resource: res, Action: act}, nil
}

var (
	CartUse     = Capability{"cart", "use"}
	WishlistUse = Capability{"wishlist", "use"}
	WalletUse   = Capability{"wallet", "use"}

	OrdersCreate       = Capability{"orders", "create"}
	OrdersReadOwn      = Capability{"orders", "read_own"}
	OrdersReadAll      = Capability{"orders", "read_all"}
	OrdersUpdateStatus = Capability{"orders", "update_status"}
	OrdersAssign       = Capability{"orders", "assign"}
	// 顧客対応の記録（割当て時の履歴もこれで判定）
	OrdersContact   = Capability{"orders", "contact"}
	OrdersDeliver   = Capability{"orders", "deliver"}
	OrdersExport    = Capability{"orders", "export"}
	OrdersDashboard = Capability{"orders", "dashboard"}

	ReviewsWrite = Capability{"reviews", "write"}

	DeliveryStaffRead = Capability{"staff.delivery", "read"}
	StaffManage       = Capability{"staff", "manage"}

	ProductsManage = Capability{"products", "manage"}
	CouponsManage  = Capability{"coupons", "manage"}
	PostsManage    = Capability{"posts", "manage"}
	TagsManage     = Capability{"tags", "manage"}

	UsersForceLogout = Capability{"users", "force_logout"}
	AuditLogsRead    = Capability{"audit_logs", "read"}

	// チャットの対応者側
	ChatAgent = Capability{"chat", "agent"}
)
