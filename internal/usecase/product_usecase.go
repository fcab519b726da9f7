package usecase

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"
)

const (
	defaultProductPage  = 1
	defaultProductLimit = 20
	maxProductLimit     = 100
)

// 一覧で使える並び順
var productSorts = map[string]bool{
	"":           true,
	"new":        true,
	"price_asc":  true,
	"price_desc": true,
	"name_asc":   true,
}

// 公開の商品カタログと管理者の商品管理
type ProductUsecase struct {
	products repo.ProductRepository
	reviews  repo.ReviewRepository
}

func NewProductUsecase(products repo.ProductRepository, reviews repo.ReviewRepository) *ProductUsecase {
	return &ProductUsecase{products: products, reviews: reviews}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Brand    string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// 0は既定値に置き換える
func (in *ListProductsInput) normalize() error {
	if in.Page == 0 {
		in.Page = defaultProductPage
	}
	if in.Limit == 0 {
		in.Limit = defaultProductLimit
	}
	in.Q = strings.TrimSpace(in.Q)
	in.Brand = strings.TrimSpace(in.Brand)

	switch {
	case in.Page < 1:
		return NewHTTPError(http.StatusBadRequest, "invalid page")
	case in.Limit < 1 || in.Limit > maxProductLimit:
		return NewHTTPError(http.StatusBadRequest, "invalid limit")
	case len(in.Q) > 100:
		return NewHTTPError(http.StatusBadRequest, "q too long")
	case in.MinPrice != nil && *in.MinPrice < 0:
		return NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	case in.MaxPrice != nil && *in.MaxPrice < 0:
		return NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	case in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice:
		return NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	case !productSorts[in.Sort]:
		return NewHTTPError(http.StatusBadRequest, "invalid sort")
	}
	return nil
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if err := in.normalize(); err != nil {
		return ProductListOutput{}, err
	}

	items, total, err := u.products.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		Brand:    in.Brand,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 商品 + レビュー集計
type ProductDetailOutput struct {
	model.Product
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int64   `json:"total_reviews"`
}

// 非公開の商品は404
func (u *ProductUsecase) Detail(ctx context.Context, productID int64) (ProductDetailOutput, error) {
	p, err := u.find(ctx, productID)
	if err != nil {
		return ProductDetailOutput{}, err
	}
	if !p.IsActive {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "Product not found")
	}

	s, err := u.reviews.Summary(ctx, productID)
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ProductDetailOutput{
		Product:       p,
		AverageRating: math.Round(s.Average*10) / 10,
		TotalReviews:  s.Count,
	}, nil
}

func (u *ProductUsecase) find(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "Product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

type ProductInput struct {
	Name        string
	Brand       string
	Description string
	Price       int64
	Image       string
	IsActive    bool
}

func (in ProductInput) toModel(id int64) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if in.Price < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	return model.Product{
		ID:          id,
		Name:        name,
		Brand:       strings.TrimSpace(in.Brand),
		Description: in.Description,
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		IsActive:    in.IsActive,
	}, nil
}

func (u *ProductUsecase) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	p, err := in.toModel(0)
	if err != nil {
		return model.Product{}, err
	}
	created, err := u.products.Create(ctx, p)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

// 更新後の商品を返す
func (u *ProductUsecase) Update(ctx context.Context, productID int64, in ProductInput) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	p, err := in.toModel(productID)
	if err != nil {
		return model.Product{}, err
	}

	err = u.products.Update(ctx, p)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "Product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.find(ctx, productID)
}

// 論理削除。カート・注文の参照は残る
func (u *ProductUsecase) Delete(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	err := u.products.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "Product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
