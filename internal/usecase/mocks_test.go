package usecase_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/infra/vnpay"
	repo "ecshop/internal/repository"
	"ecshop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// TxManager / TxRepos
// =====================

// WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	Repos *TxReposMock
	Calls int
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Calls++
	return fn(m.Repos)
}

type TxReposMock struct {
	users      *UserRepoMock
	orders     *OrderRepoMock
	orderItems *OrderItemRepoMock
	cartItems  *CartItemRepoMock
	wishlist   *WishlistRepoMock
	products   *ProductRepoMock
	payments   *PaymentRepoMock
	audit      *AuditRepoMock
}

func newTxRepos() *TxReposMock {
	return &TxReposMock{
		users:      new(UserRepoMock),
		orders:     new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		cartItems:  new(CartItemRepoMock),
		wishlist:   new(WishlistRepoMock),
		products:   new(ProductRepoMock),
		payments:   new(PaymentRepoMock),
		audit:      new(AuditRepoMock),
	}
}

func (r *TxReposMock) Users() repo.UserRepository           { return r.users }
func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *TxReposMock) Wishlist() repo.WishlistRepository    { return r.wishlist }
func (r *TxReposMock) Products() repo.ProductRepository     { return r.products }
func (r *TxReposMock) Payments() repo.PaymentRepository     { return r.payments }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository   { return r.audit }

// =====================
// Repository mocks
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	args := m.Called(ctx, role)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *UserRepoMock) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepoMock) DebitWallet(ctx context.Context, userID int64, amount int64) (bool, error) {
	args := m.Called(ctx, userID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepoMock) CreditWallet(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) SaveState(ctx context.Context, order model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) AddContactNote(ctx context.Context, note *model.ContactNote) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}

func (m *OrderRepoMock) Stats(ctx context.Context, agentID int64) (repo.OrderStats, error) {
	args := m.Called(ctx, agentID)
	s, _ := args.Get(0).(repo.OrderStats)
	return s, args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) ListLinesByUserID(ctx context.Context, userID int64) ([]repo.CartLine, error) {
	args := m.Called(ctx, userID)
	// 呼ぶたびに中身を変えたいときは関数を渡す
	if fn, ok := args.Get(0).(func(context.Context, int64) []repo.CartLine); ok {
		return fn(ctx, userID), args.Error(1)
	}
	lines, _ := args.Get(0).([]repo.CartLine)
	return lines, args.Error(1)
}

func (m *CartItemRepoMock) AddQuantity(ctx context.Context, userID int64, productID int64, qty int64) error {
	args := m.Called(ctx, userID, productID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) Delete(ctx context.Context, userID int64, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *CartItemRepoMock) ClearByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type WishlistRepoMock struct{ mock.Mock }

func (m *WishlistRepoMock) ListLinesByUserID(ctx context.Context, userID int64) ([]repo.WishlistLine, error) {
	args := m.Called(ctx, userID)
	lines, _ := args.Get(0).([]repo.WishlistLine)
	return lines, args.Error(1)
}

func (m *WishlistRepoMock) Create(ctx context.Context, userID int64, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

func (m *WishlistRepoMock) Delete(ctx context.Context, userID int64, productID int64) error {
	args := m.Called(ctx, userID, productID)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	total, _ := args.Get(1).(int64)
	return items, total, args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	args := m.Called(ctx, ids)
	ps, _ := args.Get(0).(map[int64]model.Product)
	return ps, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type PaymentRepoMock struct{ mock.Mock }

func (m *PaymentRepoMock) Create(ctx context.Context, p *model.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PaymentRepoMock) FindByTxnRef(ctx context.Context, txnRef string) (model.Payment, error) {
	args := m.Called(ctx, txnRef)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *PaymentRepoMock) Finalize(ctx context.Context, txnRef string, res repo.PaymentResult) (bool, error) {
	args := m.Called(ctx, txnRef, res)
	return args.Bool(0), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Record(ctx context.Context, entry model.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *AuditRepoMock) Search(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, error) {
	args := m.Called(ctx, q)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type CouponRepoMock struct{ mock.Mock }

func (m *CouponRepoMock) Create(ctx context.Context, c *model.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CouponRepoMock) List(ctx context.Context) ([]model.Coupon, error) {
	args := m.Called(ctx)
	cs, _ := args.Get(0).([]model.Coupon)
	return cs, args.Error(1)
}

func (m *CouponRepoMock) FindByID(ctx context.Context, id int64) (model.Coupon, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Coupon)
	return c, args.Error(1)
}

func (m *CouponRepoMock) FindUsableByCode(ctx context.Context, code string, now time.Time) (model.Coupon, error) {
	args := m.Called(ctx, code, now)
	c, _ := args.Get(0).(model.Coupon)
	return c, args.Error(1)
}

func (m *CouponRepoMock) Update(ctx context.Context, c model.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CouponRepoMock) UpdateStatus(ctx context.Context, id int64, status model.CouponStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *CouponRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type TagRepoMock struct{ mock.Mock }

func (m *TagRepoMock) Create(ctx context.Context, t *model.Tag) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *TagRepoMock) List(ctx context.Context) ([]model.Tag, error) {
	args := m.Called(ctx)
	tags, _ := args.Get(0).([]model.Tag)
	return tags, args.Error(1)
}

func (m *TagRepoMock) FindByID(ctx context.Context, id int64) (model.Tag, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(model.Tag)
	return t, args.Error(1)
}

func (m *TagRepoMock) FindByIDs(ctx context.Context, ids []int64) ([]model.Tag, error) {
	args := m.Called(ctx, ids)
	tags, _ := args.Get(0).([]model.Tag)
	return tags, args.Error(1)
}

func (m *TagRepoMock) Update(ctx context.Context, t model.Tag) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *TagRepoMock) UpdateStatus(ctx context.Context, id int64, status model.TagStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *TagRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// その他の部品
// =====================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqIDGen struct{ id string }

func (g seqIDGen) NewID() string { return g.id }

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishOrderUpdated(ctx context.Context, ev model.OrderUpdatedEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) BuildPaymentURL(req vnpay.PaymentRequest) (string, error) {
	args := m.Called(req)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) Verify(query url.Values) (vnpay.Result, error) {
	args := m.Called(query)
	r, _ := args.Get(0).(vnpay.Result)
	return r, args.Error(1)
}

type HasherMock struct{ mock.Mock }

func (m *HasherMock) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

// =====================
// Helper
// =====================

func requireHTTPError(t *testing.T, err error, status int) *usecase.HTTPError {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "want HTTPError, got %v", err)
	assert.Equal(t, status, he.Status, "message=%q", he.Message)
	return he
}
