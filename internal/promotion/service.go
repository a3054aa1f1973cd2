package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"store-backend/internal/logger"
	"store-backend/internal/models"
	promodb "store-backend/internal/promotion/db"
	"store-backend/internal/utils"
)

// Ref identifies a promotion either by code or by id. Code wins when both
// are set.
type Ref struct {
	Code string
	ID   string
}

func (r Ref) Empty() bool {
	return r.Code == "" && r.ID == ""
}

type Service struct {
	DB     *promodb.DB
	Logger *logger.Logger
}

func NewService(db *promodb.DB, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

// Evaluate validates a promotion against an order total and computes the
// discount. Checks short-circuit in order: existence, status, date window,
// usage limit, minimum order amount. Read-only; MarkUsed records the
// application inside the caller's transaction.
func (s *Service) Evaluate(ctx context.Context, idb bun.IDB, ref Ref, orderTotal float64) (*models.ApplyPromoResult, error) {
	if idb == nil {
		idb = s.DB.Bun
	}

	promo, err := s.lookup(ctx, idb, ref)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrNotFound
	}

	if promo.Status != models.PromoActive {
		return nil, ErrInactive
	}

	now := time.Now()
	if now.Before(promo.StartDate) {
		return nil, ErrNotYetValid
	}
	if now.After(utils.EndOfDay(promo.EndDate)) {
		return nil, ErrExpired
	}

	if promo.UsageLimit <= 0 || promo.UsedCount >= promo.UsageLimit {
		return nil, ErrUsageExceeded
	}

	if orderTotal < promo.MinOrderAmount {
		return nil, fmt.Errorf("order total %.2f is below the %.2f minimum: %w",
			orderTotal, promo.MinOrderAmount, ErrBelowMinimum)
	}

	var discount float64
	switch promo.DiscountType {
	case models.DiscountPercent:
		discount = utils.Round2(orderTotal * promo.DiscountValue / 100)
	case models.DiscountFixed:
		// Capped at the order total so the final amount never goes negative.
		discount = promo.DiscountValue
		if discount > orderTotal {
			discount = orderTotal
		}
	default:
		return nil, fmt.Errorf("unsupported discount type %q: %w", promo.DiscountType, ErrInvalid)
	}

	return &models.ApplyPromoResult{
		PromoID:        promo.PromoID,
		PromoCode:      promo.PromoCode,
		DiscountType:   promo.DiscountType,
		DiscountValue:  promo.DiscountValue,
		DiscountAmount: discount,
		MinOrderAmount: promo.MinOrderAmount,
	}, nil
}

// MarkUsed increments used_count within the caller's transaction. The
// conditional update keeps concurrent applications from exceeding the limit.
func (s *Service) MarkUsed(ctx context.Context, idb bun.IDB, promoID string) error {
	if idb == nil {
		idb = s.DB.Bun
	}
	if err := s.DB.IncrementUsage(ctx, idb, promoID); err != nil {
		if err == promodb.ErrUsageConflict {
			return ErrUsageExceeded
		}
		return fmt.Errorf("failed to record promotion usage: %w", err)
	}
	return nil
}

// ---------------- ADMIN CRUD ----------------

func (s *Service) List(ctx context.Context) ([]models.Promotion, error) {
	return s.DB.List(ctx)
}

func (s *Service) Get(ctx context.Context, promoID string) (*models.Promotion, error) {
	promo, err := s.DB.GetByID(ctx, s.DB.Bun, promoID)
	if err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, ErrNotFound
	}
	return promo, nil
}

func (s *Service) Create(ctx context.Context, promo models.Promotion) (*models.Promotion, error) {
	if err := validate(&promo); err != nil {
		return nil, err
	}

	existing, err := s.DB.GetByCode(ctx, s.DB.Bun, promo.PromoCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCodeExists
	}

	promo.PromoID = uuid.NewString()
	promo.UsedCount = 0
	if err := s.DB.Insert(ctx, &promo); err != nil {
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}
	return &promo, nil
}

func (s *Service) Update(ctx context.Context, promoID string, promo models.Promotion) (*models.Promotion, error) {
	existing, err := s.Get(ctx, promoID)
	if err != nil {
		return nil, err
	}

	// Discount terms are frozen once the promotion has been applied.
	if existing.UsedCount > 0 &&
		(promo.DiscountType != existing.DiscountType || promo.DiscountValue != existing.DiscountValue) {
		return nil, ErrImmutableAfterUse
	}

	if err := validate(&promo); err != nil {
		return nil, err
	}

	if promo.PromoCode != existing.PromoCode {
		byCode, err := s.DB.GetByCode(ctx, s.DB.Bun, promo.PromoCode)
		if err != nil {
			return nil, err
		}
		if byCode != nil && byCode.PromoID != promoID {
			return nil, ErrCodeExists
		}
	}

	promo.PromoID = promoID
	promo.UsedCount = existing.UsedCount
	if err := s.DB.Update(ctx, &promo); err != nil {
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}
	return &promo, nil
}

func (s *Service) Delete(ctx context.Context, promoID string) error {
	existing, err := s.Get(ctx, promoID)
	if err != nil {
		return err
	}
	if existing.UsedCount > 0 {
		return ErrInUse
	}
	return s.DB.Delete(ctx, promoID)
}

func (s *Service) lookup(ctx context.Context, idb bun.IDB, ref Ref) (*models.Promotion, error) {
	if ref.Code != "" {
		return s.DB.GetByCode(ctx, idb, ref.Code)
	}
	if ref.ID != "" {
		return s.DB.GetByID(ctx, idb, ref.ID)
	}
	return nil, nil
}

func validate(promo *models.Promotion) error {
	if promo.PromoCode == "" {
		return fmt.Errorf("promo_code is required: %w", ErrInvalid)
	}
	if promo.DiscountType != models.DiscountPercent && promo.DiscountType != models.DiscountFixed {
		return fmt.Errorf("discount_type must be percent or fixed: %w", ErrInvalid)
	}
	if promo.Status != models.PromoActive && promo.Status != models.PromoInactive {
		return fmt.Errorf("status must be active or inactive: %w", ErrInvalid)
	}
	if promo.EndDate.Before(promo.StartDate) {
		return fmt.Errorf("end_date must not precede start_date: %w", ErrInvalid)
	}
	if promo.DiscountValue <= 0 {
		return fmt.Errorf("discount_value must be positive: %w", ErrInvalid)
	}
	if promo.DiscountType == models.DiscountPercent && (promo.DiscountValue < 1 || promo.DiscountValue > 100) {
		return fmt.Errorf("percent discount_value must be between 1 and 100: %w", ErrInvalid)
	}
	if promo.MinOrderAmount < 0 {
		return fmt.Errorf("min_order_amount must not be negative: %w", ErrInvalid)
	}
	if promo.UsageLimit < 0 {
		return fmt.Errorf("usage_limit must not be negative: %w", ErrInvalid)
	}
	return nil
}
