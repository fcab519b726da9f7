package repository

import (
	"context"
	"time"

	"ecshop/internal/domain/model"
)

type CouponRepository interface {
	Create(ctx context.Context, c *model.Coupon) error
	List(ctx context.Context) ([]model.Coupon, error)
	FindByID(ctx context.Context, id int64) (model.Coupon, error)
	//active かつ期限内のものだけ
	FindUsableByCode(ctx context.Context, code string, now time.Time) (model.Coupon, error)
	Update(ctx context.Context, c model.Coupon) error
	UpdateStatus(ctx context.Context, id int64, status model.CouponStatus) error
	Delete(ctx context.Context, id int64) error
}
