package repository

import (
	"context"
	"os"
	"testing"

	"ecshop/internal/domain/model"
	"ecshop/internal/infra/db"
	repo "ecshop/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// 実DBが必要なテスト。DATABASE_URL が無ければスキップ
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is not set")
	}

	gdb, err := db.Connect(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, balance int64) model.User {
	t.Helper()

	u := model.User{
		Username:      "t_" + uuid.NewString()[:12],
		Email:         uuid.NewString() + "@example.com",
		PasswordHash:  "x",
		Role:          model.RoleUser,
		WalletBalance: balance,
		IsActive:      true,
	}
	require.NoError(t, gdb.Create(&u).Error)
	t.Cleanup(func() {
		gdb.Where("user_id = ?", u.ID).Delete(&model.CartItem{})
		gdb.Where("user_id = ?", u.ID).Delete(&model.Payment{})
		gdb.Delete(&model.User{}, u.ID)
	})
	return u
}

func createTestProduct(t *testing.T, gdb *gorm.DB) model.Product {
	t.Helper()

	p := model.Product{Name: "Test product", Price: 1000, IsActive: true}
	require.NoError(t, gdb.Create(&p).Error)
	t.Cleanup(func() { gdb.Unscoped().Delete(&model.Product{}, p.ID) })
	return p
}

// =====================
// Cart
// =====================

func TestCartGorm_AddQuantity_ConcurrentSameProduct(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, 0)
	p := createTestProduct(t, gdb)
	r := NewCartGormRepository(gdb)
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error { return r.AddQuantity(ctx, u.ID, p.ID, 1) })
	}
	require.NoError(t, g.Wait())

	items, err := r.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(8), items[0].Quantity)
}

func TestCartGorm_AddQuantity_SameProductTwice(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, 0)
	p := createTestProduct(t, gdb)
	r := NewCartGormRepository(gdb)
	ctx := context.Background()

	require.NoError(t, r.AddQuantity(ctx, u.ID, p.ID, 1))
	require.NoError(t, r.AddQuantity(ctx, u.ID, p.ID, 1))

	items, err := r.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].Quantity)
}

func TestCartGorm_AddQuantity_LineLimit(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, 0)
	p := createTestProduct(t, gdb)
	r := NewCartGormRepository(gdb)
	ctx := context.Background()

	require.NoError(t, r.AddQuantity(ctx, u.ID, p.ID, model.MaxLineQuantity-1))

	// 超える加算は行ごと変えない
	assert.ErrorIs(t, r.AddQuantity(ctx, u.ID, p.ID, 2), repo.ErrConflict)
	assert.ErrorIs(t, r.AddQuantity(ctx, u.ID, p.ID, model.MaxLineQuantity+1), repo.ErrConflict)

	items, err := r.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.MaxLineQuantity-1, items[0].Quantity)

	require.NoError(t, r.AddQuantity(ctx, u.ID, p.ID, 1))
	items, err = r.ListByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MaxLineQuantity, items[0].Quantity)
}

// =====================
// Payment
// =====================

func TestPaymentGorm_Finalize_OnlyOnce(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, 0)
	r := NewPaymentGormRepository(gdb)
	ctx := context.Background()

	p := model.Payment{TxnRef: uuid.NewString(), UserID: u.ID, Amount: 1000, Status: model.PaymentStatusPending}
	require.NoError(t, r.Create(ctx, &p))

	res := repo.PaymentResult{Status: model.PaymentStatusSuccess, BankCode: "NCB", TransactionNo: "14012345", ResponseCode: "00"}

	// IPNと戻りURLが同時に来た想定
	results := make([]bool, 2)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			ok, err := r.Finalize(ctx, p.TxnRef, res)
			results[i] = ok
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.ElementsMatch(t, []bool{true, false}, results)

	ok, err := r.Finalize(ctx, p.TxnRef, repo.PaymentResult{Status: model.PaymentStatusFailed, ResponseCode: "24"})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindByTxnRef(ctx, p.TxnRef)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccess, got.Status)
	assert.Equal(t, "00", got.ResponseCode)
}

// =====================
// Wallet
// =====================

func TestUserGorm_DebitWallet(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, 500)
	r := NewUserGormRepository(gdb)
	ctx := context.Background()

	ok, err := r.DebitWallet(ctx, u.ID, 2000)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.WalletBalance)

	ok, err = r.DebitWallet(ctx, u.ID, 500)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.WalletBalance)
}

// 同時に引いても残高はマイナスにならない
func TestUserGorm_DebitWallet_Concurrent(t *testing.T) {
	gdb := openTestDB(t)
	u := createTestUser(t, gdb, 1000)
	r := NewUserGormRepository(gdb)
	ctx := context.Background()

	results := make([]bool, 5)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			ok, err := r.DebitWallet(ctx, u.ID, 400)
			results[i] = ok
			return err
		})
	}
	require.NoError(t, g.Wait())

	debited := 0
	for _, ok := range results {
		if ok {
			debited++
		}
	}
	assert.Equal(t, 2, debited)

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.WalletBalance)
}
