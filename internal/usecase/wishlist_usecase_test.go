package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
	"ecshop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newWishlistUC(r *TxReposMock) (*usecase.WishlistUsecase, *TxManagerMock) {
	tx := &TxManagerMock{Repos: r}
	return usecase.NewWishlistUsecase(tx, r.wishlist, r.products), tx
}

func TestWishlistUsecase_Add(t *testing.T) {
	r := newTxRepos()
	r.products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, IsActive: true}, nil)
	r.wishlist.On("Create", mock.Anything, int64(10), int64(1)).Return(nil).Once()

	uc, _ := newWishlistUC(r)
	require.NoError(t, uc.AddToWishlist(context.Background(), 10, 1))

	// 2回目は重複
	r.wishlist.On("Create", mock.Anything, int64(10), int64(1)).Return(repo.ErrConflict)
	err := uc.AddToWishlist(context.Background(), 10, 1)
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "product already in wishlist", he.Message)
}

func TestWishlistUsecase_Add_UnknownProduct(t *testing.T) {
	r := newTxRepos()
	r.products.On("FindByID", mock.Anything, int64(9)).Return(model.Product{}, repo.ErrNotFound)

	uc, _ := newWishlistUC(r)
	err := uc.AddToWishlist(context.Background(), 10, 9)
	requireHTTPError(t, err, http.StatusNotFound)
	r.wishlist.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestWishlistUsecase_Get_Defaults(t *testing.T) {
	name := "Tee"
	price := int64(1000)
	r := newTxRepos()
	r.wishlist.On("ListLinesByUserID", mock.Anything, int64(10)).Return([]repo.WishlistLine{
		{ProductID: 1, Name: &name, Price: &price},
		{ProductID: 2},
	}, nil)

	uc, _ := newWishlistUC(r)
	items, err := uc.GetWishlist(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, usecase.WishlistItemResponse{ProductID: 1, Name: "Tee", Price: 1000}, items[0])
	assert.Equal(t, usecase.WishlistItemResponse{ProductID: 2, Name: "Unknown Product"}, items[1])
}

func TestWishlistUsecase_Remove_NotFound(t *testing.T) {
	r := newTxRepos()
	r.wishlist.On("Delete", mock.Anything, int64(10), int64(3)).Return(repo.ErrNotFound)

	uc, _ := newWishlistUC(r)
	err := uc.RemoveFromWishlist(context.Background(), 10, 3)
	requireHTTPError(t, err, http.StatusNotFound)
}

func TestWishlistUsecase_MoveToCart(t *testing.T) {
	r := newTxRepos()
	r.wishlist.On("Delete", mock.Anything, int64(10), int64(1)).Return(nil)
	r.products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, IsActive: true}, nil)
	r.cartItems.On("AddQuantity", mock.Anything, int64(10), int64(1), int64(1)).Return(nil)

	uc, tx := newWishlistUC(r)
	require.NoError(t, uc.MoveToCart(context.Background(), 10, 1))
	assert.Equal(t, 1, tx.Calls)
	r.cartItems.AssertExpectations(t)
}

func TestWishlistUsecase_MoveToCart_NotInWishlist(t *testing.T) {
	r := newTxRepos()
	r.wishlist.On("Delete", mock.Anything, int64(10), int64(1)).Return(repo.ErrNotFound)

	uc, _ := newWishlistUC(r)
	err := uc.MoveToCart(context.Background(), 10, 1)
	requireHTTPError(t, err, http.StatusNotFound)
	r.cartItems.AssertNotCalled(t, "AddQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
