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

func TestCartUsecase_AddSameProductTwice(t *testing.T) {
	cart := new(CartItemRepoMock)
	products := new(ProductRepoMock)

	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, Price: 1000, IsActive: true}, nil)

	// 加算はrepo側の1文で行う。呼び出しごとの数量を記録する
	var qty int64
	cart.On("AddQuantity", mock.Anything, int64(10), int64(1), int64(1)).
		Run(func(args mock.Arguments) { qty += args.Get(3).(int64) }).
		Return(nil)
	cart.On("ListLinesByUserID", mock.Anything, int64(10)).Return(func(context.Context, int64) []repo.CartLine {
		return []repo.CartLine{{ProductID: 1, Quantity: qty, Price: ptr(int64(1000)), Name: ptr("Shirt")}}
	}, nil)

	uc := usecase.NewCartUsecase(cart, products)
	_, err := uc.AddToCart(context.Background(), 10, usecase.AddCartInput{ProductID: 1})
	require.NoError(t, err)
	res, err := uc.AddToCart(context.Background(), 10, usecase.AddCartInput{ProductID: 1, Quantity: 1})
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(2), res.Items[0].Quantity)
	assert.Equal(t, int64(2000), res.Total)
	cart.AssertNumberOfCalls(t, "AddQuantity", 2)
}

func TestCartUsecase_AddToCart_Rejected(t *testing.T) {
	tests := []struct {
		name       string
		in         usecase.AddCartInput
		product    model.Product
		findErr    error
		wantStatus int
	}{
		{name: "missing product id", in: usecase.AddCartInput{}, wantStatus: http.StatusBadRequest},
		{name: "negative quantity", in: usecase.AddCartInput{ProductID: 1, Quantity: -2}, wantStatus: http.StatusBadRequest},
		{name: "unknown product", in: usecase.AddCartInput{ProductID: 1}, findErr: repo.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "inactive product", in: usecase.AddCartInput{ProductID: 1}, product: model.Product{ID: 1, IsActive: false}, wantStatus: http.StatusNotFound},
		{name: "over line limit", in: usecase.AddCartInput{ProductID: 1, Quantity: model.MaxLineQuantity + 1}, product: model.Product{ID: 1, IsActive: true}, wantStatus: http.StatusBadRequest},
		{name: "huge quantity", in: usecase.AddCartInput{ProductID: 1, Quantity: 1<<54 + 1}, product: model.Product{ID: 1, IsActive: true}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := new(CartItemRepoMock)
			products := new(ProductRepoMock)
			products.On("FindByID", mock.Anything, int64(1)).Return(tt.product, tt.findErr)

			_, err := usecase.NewCartUsecase(cart, products).AddToCart(context.Background(), 10, tt.in)
			requireHTTPError(t, err, tt.wantStatus)
			cart.AssertNotCalled(t, "AddQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCartUsecase_GetCart_MissingProduct(t *testing.T) {
	cart := new(CartItemRepoMock)
	cart.On("ListLinesByUserID", mock.Anything, int64(10)).Return([]repo.CartLine{
		{ProductID: 1, Quantity: 1, Price: ptr(int64(500)), Name: ptr("Cap")},
		{ProductID: 2, Quantity: 3},
	}, nil)

	res, err := usecase.NewCartUsecase(cart, new(ProductRepoMock)).GetCart(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(0), res.Items[1].Price)
	assert.Equal(t, int64(500), res.Total)
}

func TestCartUsecase_Remove_NotInCart(t *testing.T) {
	cart := new(CartItemRepoMock)
	cart.On("Delete", mock.Anything, int64(10), int64(4)).Return(repo.ErrNotFound)

	err := usecase.NewCartUsecase(cart, new(ProductRepoMock)).RemoveFromCart(context.Background(), 10, 4)
	requireHTTPError(t, err, http.StatusNotFound)
}

// 既存の数量と合わせて上限を超えるとrepoはErrConflictを返す
func TestCartUsecase_AddToCart_SummedQuantityOverLimit(t *testing.T) {
	cart := new(CartItemRepoMock)
	products := new(ProductRepoMock)
	products.On("FindByID", mock.Anything, int64(1)).Return(model.Product{ID: 1, Price: 1000, IsActive: true}, nil)
	cart.On("AddQuantity", mock.Anything, int64(10), int64(1), int64(600)).Return(repo.ErrConflict)

	_, err := usecase.NewCartUsecase(cart, products).AddToCart(context.Background(), 10, usecase.AddCartInput{ProductID: 1, Quantity: 600})
	he := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "quantity must be at most 1000 per product", he.Message)
	cart.AssertNotCalled(t, "ListLinesByUserID", mock.Anything, mock.Anything)
}
