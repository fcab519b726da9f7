package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type CouponUsecase struct {
	couponRepo   repo.CouponRepository
	cartItemRepo repo.CartItemRepository
	auditRepo    repo.AuditLogRepository
	clock        Clock
}

func NewCouponUsecase(
	couponRepo repo.CouponRepository,
	cartItemRepo repo.CartItemRepository,
	auditRepo repo.AuditLogRepository,
	clock Clock,
) *CouponUsecase {
	return &CouponUsecase{
		couponRepo:   couponRepo,
		cartItemRepo: cartItemRepo,
		auditRepo:    auditRepo,
		clock:        clock,
	}
}

type CouponInput struct {
	Code           string
	Discount       decimal.Decimal
	ExpirationDate time.Time
	Status         model.CouponStatus
}

func (in CouponInput) validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return NewHTTPError(http.StatusBadRequest, "coupon code is required")
	}
	if !in.Discount.IsPositive() || in.Discount.GreaterThan(hundred) {
		return NewHTTPError(http.StatusBadRequest, "discount must be greater than 0 and at most 100")
	}
	if in.ExpirationDate.IsZero() {
		return NewHTTPError(http.StatusBadRequest, "expiration date is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	return nil
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (u *CouponUsecase) Create(ctx context.Context, in CouponInput) (model.Coupon, error) {
	if err := in.validate(); err != nil {
		return model.Coupon{}, err
	}
	status := in.Status
	if status == "" {
		status = model.CouponStatusActive
	}

	c := model.Coupon{
		Code:           normalizeCouponCode(in.Code),
		Discount:       in.Discount,
		Status:         status,
		ExpirationDate: in.ExpirationDate,
	}
	err := u.couponRepo.Create(ctx, &c)
	if errors.Is(err, repo.ErrConflict) {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "coupon code already exists")
	}
	if err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CouponUsecase) List(ctx context.Context) ([]model.Coupon, error) {
	items, err := u.couponRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *CouponUsecase) Get(ctx context.Context, id int64) (model.Coupon, error) {
	if id <= 0 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	c, err := u.couponRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Coupon{}, NewHTTPError(http.StatusNotFound, "coupon not found")
	}
	if err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CouponUsecase) Update(ctx context.Context, id int64, in CouponInput) (model.Coupon, error) {
	current, err := u.Get(ctx, id)
	if err != nil {
		return model.Coupon{}, err
	}
	if err := in.validate(); err != nil {
		return model.Coupon{}, err
	}

	current.Code = normalizeCouponCode(in.Code)
	current.Discount = in.Discount
	current.ExpirationDate = in.ExpirationDate
	if in.Status != "" {
		current.Status = in.Status
	}

	err = u.couponRepo.Update(ctx, current)
	if errors.Is(err, repo.ErrConflict) {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "coupon code already exists")
	}
	if errors.Is(err, repo.ErrNotFound) {
		return model.Coupon{}, NewHTTPError(http.StatusNotFound, "coupon not found")
	}
	if err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return current, nil
}

func (u *CouponUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.couponRepo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "coupon not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// active/expired の切り替え。監査ログを残す
func (u *CouponUsecase) UpdateStatus(ctx context.Context, actorUserID int64, id int64, status model.CouponStatus) (model.Coupon, error) {
	if !status.Valid() {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	current, err := u.Get(ctx, id)
	if err != nil {
		return model.Coupon{}, err
	}

	err = u.couponRepo.UpdateStatus(ctx, id, status)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Coupon{}, NewHTTPError(http.StatusNotFound, "coupon not found")
	}
	if err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.auditRepo.Record(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionUpdateCouponStatus,
		ResourceType: model.AuditResourceCoupon,
		ResourceID:   id,
		BeforeJSON:   auditJSON(map[string]any{"status": current.Status}),
		AfterJSON:    auditJSON(map[string]any{"status": status}),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return model.Coupon{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	current.Status = status
	return current, nil
}

type ApplyCouponOutput struct {
	Code            string  `json:"code"`
	Discount        float64 `json:"discount"`
	Total           int64   `json:"total"`
	DiscountAmount  float64 `json:"discount_amount"`
	DiscountedTotal float64 `json:"discounted_total"`
}

// カート合計に割引を当てた結果を返すだけ（カートもクーポンも変更しない）
func (u *CouponUsecase) ApplyCoupon(ctx context.Context, userID int64, code string) (ApplyCouponOutput, error) {
	if userID <= 0 {
		return ApplyCouponOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	code = normalizeCouponCode(code)
	if code == "" {
		return ApplyCouponOutput{}, NewHTTPError(http.StatusBadRequest, "coupon code is required")
	}

	c, err := u.couponRepo.FindUsableByCode(ctx, code, u.clock.Now())
	if errors.Is(err, repo.ErrNotFound) {
		return ApplyCouponOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid or expired coupon")
	}
	if err != nil {
		return ApplyCouponOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//repo側の条件と同じだが念のためモデルでも確認
	if !c.UsableAt(u.clock.Now()) {
		return ApplyCouponOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid or expired coupon")
	}

	lines, err := u.cartItemRepo.ListLinesByUserID(ctx, userID)
	if err != nil {
		return ApplyCouponOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if len(lines) == 0 {
		return ApplyCouponOutput{}, NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	var total int64
	for _, l := range lines {
		var ok bool
		if total, ok = model.AddLineTotal(total, int64Or(l.Price, 0), l.Quantity); !ok {
			return ApplyCouponOutput{}, errTotalTooLarge
		}
	}

	amount, discounted := ApplyDiscount(total, c.Discount)
	return ApplyCouponOutput{
		Code:            c.Code,
		Discount:        c.Discount.InexactFloat64(),
		Total:           total,
		DiscountAmount:  amount.InexactFloat64(),
		DiscountedTotal: discounted.InexactFloat64(),
	}, nil
}

// total × percent / 100 と残りを小数2桁で返す
func ApplyDiscount(total int64, percent decimal.Decimal) (discountAmount, discountedTotal decimal.Decimal) {
	t := decimal.NewFromInt(total)
	amount := t.Mul(percent).Div(hundred).Round(2)
	return amount, t.Sub(amount).Round(2)
}
