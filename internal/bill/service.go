package bill

import (
	"context"
	"errors"
	"time"

	billdb "store-backend/internal/bill/db"
	"store-backend/internal/logger"
	"store-backend/internal/models"
)

var (
	ErrBillNotFound      = errors.New("bill not found")
	ErrInvalidStatus     = errors.New("invalid bill status")
	ErrPaidBillImmutable = errors.New("paid bills cannot be cancelled")
)

type Service struct {
	DB     *billdb.DB
	Logger *logger.Logger
}

func NewService(db *billdb.DB, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

func (s *Service) GetByID(ctx context.Context, billID string) (*models.Bill, error) {
	bill, err := s.DB.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, ErrBillNotFound
	}
	return bill, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]models.Bill, error) {
	return s.DB.ListByCustomer(ctx, customerID)
}

// UpdateStatus moves a bill between unpaid, paid and cancelled. paid_at is
// stamped on the first transition to paid; a paid bill cannot be cancelled.
func (s *Service) UpdateStatus(ctx context.Context, billID, status string) (*models.Bill, error) {
	switch status {
	case models.BillUnpaid, models.BillPaid, models.BillCancelled:
	default:
		return nil, ErrInvalidStatus
	}

	bill, err := s.DB.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, ErrBillNotFound
	}
	if bill.PayStatus == models.BillPaid && status == models.BillCancelled {
		return nil, ErrPaidBillImmutable
	}

	var paidAt time.Time
	if status == models.BillPaid && bill.PaidAt.IsZero() {
		paidAt = time.Now()
	}
	if err := s.DB.UpdateStatus(ctx, billID, status, paidAt); err != nil {
		return nil, err
	}

	s.Logger.Info("ORDER", "bill "+billID+" status set to "+status)
	return s.DB.GetByID(ctx, billID)
}
