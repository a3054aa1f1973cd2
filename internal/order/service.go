package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	cartdb "store-backend/internal/cart/db"
	catalogdb "store-backend/internal/catalog/db"
	invdb "store-backend/internal/inventory/db"
	"store-backend/internal/logger"
	"store-backend/internal/models"
	orderdb "store-backend/internal/order/db"
	orderredis "store-backend/internal/order/redis"
	"store-backend/internal/promotion"
	"store-backend/internal/utils"
)

// Service runs the checkout workflow: cart to order, payment, bill and
// inventory movement, all inside one database transaction.
type Service struct {
	DB      *orderdb.DB
	Cart    *cartdb.DB
	Catalog *catalogdb.DB
	Stock   *invdb.DB
	Promos  *promotion.Service
	Lock    *orderredis.Lock
	Logger  *logger.Logger
}

func NewService(db *orderdb.DB, cart *cartdb.DB, catalog *catalogdb.DB,
	stock *invdb.DB, promos *promotion.Service, lock *orderredis.Lock,
	log *logger.Logger) *Service {
	return &Service{
		DB:      db,
		Cart:    cart,
		Catalog: catalog,
		Stock:   stock,
		Promos:  promos,
		Lock:    lock,
		Logger:  log,
	}
}

// Checkout turns the customer's cart into a paid or pending order. Cash and
// e-wallet settle immediately; card and bank transfer stay pending until the
// gateway callback confirms. Any failure rolls the whole unit of work back:
// no order, no bill, no payment, no stock movement, no promo usage.
func (s *Service) Checkout(ctx context.Context, customerID int64, req models.CheckoutRequest) (*models.OrderDetail, error) {
	method := models.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.PaymentMethod)
	}

	// One checkout per customer at a time. The lock covers the whole
	// transaction so a double-submitted checkout cannot build two orders
	// from the same cart.
	lockToken := uuid.NewString()
	if s.Lock != nil {
		ok, err := s.Lock.Acquire(ctx, customerID, lockToken)
		if err != nil {
			return nil, fmt.Errorf("checkout lock: %w", err)
		}
		if !ok {
			return nil, ErrCheckoutInProgress
		}
		defer func() {
			if err := s.Lock.Release(context.Background(), customerID, lockToken); err != nil {
				s.Logger.Warn("ORDER", fmt.Sprintf("failed to release checkout lock for customer %d: %v", customerID, err))
			}
		}()
	}

	var detail *models.OrderDetail
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		lines, err := s.Cart.ListByCustomer(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		if err := s.guardLines(ctx, tx, lines); err != nil {
			return err
		}

		orderID := uuid.NewString()
		items, rawTotal, err := BuildOrderItems(orderID, lines)
		if err != nil {
			return err
		}

		var discount float64
		var promoID string
		ref := promotion.Ref{Code: req.PromoCode, ID: req.PromoID}
		if !ref.Empty() {
			result, err := s.Promos.Evaluate(ctx, tx, ref, rawTotal)
			if err != nil {
				return err
			}
			discount = result.DiscountAmount
			promoID = result.PromoID
			if err := s.Promos.MarkUsed(ctx, tx, promoID); err != nil {
				return err
			}
		}

		finalTotal := utils.Round2(rawTotal - discount)
		now := time.Now()
		instant := models.IsInstantSettlement(method)

		order := models.Order{
			OrderID:        orderID,
			CustomerID:     customerID,
			PromoID:        promoID,
			OrderDate:      now,
			TotalAmount:    rawTotal,
			DiscountAmount: discount,
			PayStatus:      models.PayStatusPending,
			OrderType:      models.OrderTypeOnline,
		}
		payment := models.Payment{
			PaymentID:     utils.GeneratePaymentID(),
			OrderID:       orderID,
			Amount:        finalTotal,
			PaymentMethod: method,
			PaymentDate:   now,
		}
		bill := models.Bill{
			BillID:         utils.GenerateBillNumber(),
			OrderID:        orderID,
			CustomerID:     customerID,
			TotalAmount:    rawTotal,
			DiscountAmount: discount,
			FinalAmount:    finalTotal,
			PaymentMethod:  method,
			PayStatus:      models.BillUnpaid,
			CreatedAt:      now,
		}
		if instant {
			order.PayStatus = models.PayStatusPaid
			bill.PayStatus = models.BillPaid
			bill.PaidAt = now
		}

		if err := s.DB.InsertOrder(ctx, tx, &order); err != nil {
			return err
		}
		if err := s.DB.InsertOrderItems(ctx, tx, items); err != nil {
			return err
		}
		if err := s.DB.InsertPayment(ctx, tx, &payment); err != nil {
			return err
		}
		if err := s.DB.InsertBill(ctx, tx, &bill); err != nil {
			return err
		}

		// Conditional decrement re-checks quantity inside the UPDATE, so
		// two concurrent checkouts cannot both take the last units even
		// though the earlier availability check passed for both.
		for _, item := range items {
			if err := s.decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.Cart.Clear(ctx, tx, customerID); err != nil {
			return err
		}

		detail = &models.OrderDetail{
			Order:    order,
			Items:    items,
			Payments: []models.Payment{payment},
			Bill:     &bill,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.LogOrder("CHECKOUT", detail.Order.OrderID,
		fmt.Sprintf("customer %d, %d items, total %.2f, status %s",
			customerID, len(detail.Items), detail.Order.TotalAmount, detail.Order.PayStatus))
	return detail, nil
}

// Preview prices the current cart without writing anything: no order, no
// promo usage, no stock movement.
func (s *Service) Preview(ctx context.Context, customerID int64, req models.PreviewRequest) (*models.OrderPreview, error) {
	idb := bun.IDB(s.DB.Bun)

	lines, err := s.Cart.ListByCustomer(ctx, idb, customerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.guardLines(ctx, idb, lines); err != nil {
		return nil, err
	}

	items, rawTotal, err := BuildOrderItems("", lines)
	if err != nil {
		return nil, err
	}

	preview := &models.OrderPreview{
		Items:       items,
		TotalAmount: rawTotal,
		FinalAmount: rawTotal,
	}

	ref := promotion.Ref{Code: req.PromoCode, ID: req.PromoID}
	if !ref.Empty() {
		result, err := s.Promos.Evaluate(ctx, idb, ref, rawTotal)
		if err != nil {
			return nil, err
		}
		preview.DiscountAmount = result.DiscountAmount
		preview.FinalAmount = utils.Round2(rawTotal - result.DiscountAmount)
		preview.PromoID = result.PromoID
	}

	return preview, nil
}

// RecordPayment registers a staff-entered payment against an order and runs
// the settlement transition when the method settles instantly or the
// cumulative paid amount reaches the amount owed.
func (s *Service) RecordPayment(ctx context.Context, orderID string, req models.RecordPaymentRequest) (*models.Order, error) {
	method := models.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, req.PaymentMethod)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidItem)
	}

	var updated *models.Order
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		order, err := s.DB.GetOrderByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		switch order.PayStatus {
		case models.PayStatusCanceled:
			return ErrAlreadyCanceled
		case models.PayStatusPaid:
			return ErrOrderAlreadyPaid
		}

		paidSoFar, err := s.DB.SumPaymentsByOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		owed := utils.Round2(order.AmountOwed())
		cumulative := utils.Round2(paidSoFar + req.Amount)
		if cumulative > owed {
			return fmt.Errorf("%w: %.2f paid + %.2f exceeds %.2f",
				ErrPaymentExceedsTotal, paidSoFar, req.Amount, owed)
		}

		payment := models.Payment{
			PaymentID:     utils.GeneratePaymentID(),
			OrderID:       orderID,
			Amount:        req.Amount,
			PaymentMethod: method,
			PaymentDate:   time.Now(),
		}
		if err := s.DB.InsertPayment(ctx, tx, &payment); err != nil {
			return err
		}

		if models.IsInstantSettlement(method) || cumulative >= owed {
			if err := s.settle(ctx, tx, order, method); err != nil {
				return err
			}
		}

		updated, err = s.DB.GetOrderByID(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.LogOrder("PAYMENT", orderID,
		fmt.Sprintf("recorded %.2f via %s, status %s", req.Amount, method, updated.PayStatus))
	return updated, nil
}

// ConfirmGatewaySettlement is the callback entry for gateway-confirmed
// payments. It flips the order and bill to paid and stamps the transaction
// reference on the payment row. Confirming an already paid order is a no-op.
func (s *Service) ConfirmGatewaySettlement(ctx context.Context, orderID, txnRef string) error {
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		order, err := s.DB.GetOrderByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.PayStatus == models.PayStatusCanceled {
			return ErrAlreadyCanceled
		}
		if order.PayStatus == models.PayStatusPaid {
			return nil
		}

		payments, err := s.DB.GetPayments(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if len(payments) > 0 {
			latest := payments[len(payments)-1]
			if err := s.DB.UpdatePaymentTransaction(ctx, tx, latest.PaymentID, txnRef, models.TxnStatusSuccess); err != nil {
				return err
			}
		}

		return s.settle(ctx, tx, order, "")
	})
	if err != nil {
		return err
	}

	s.Logger.LogOrder("GATEWAY_SETTLE", orderID, "gateway confirmed, order paid")
	return nil
}

// Cancel voids an order. Pending orders cancel unconditionally; paid orders
// only on the calendar day they were placed. Stock taken by checkout or by
// settlement is restored.
func (s *Service) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	var updated *models.Order
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		order, err := s.DB.GetOrderByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.PayStatus == models.PayStatusCanceled {
			return ErrAlreadyCanceled
		}
		if order.PayStatus == models.PayStatusPaid && !utils.SameCalendarDay(order.OrderDate, time.Now()) {
			return ErrCancelWindowClosed
		}

		// A bill exists exactly when stock was taken (checkout, or a
		// settlement that decremented for an offline order), so its
		// presence decides whether to restock.
		bill, err := s.DB.GetBillByOrderID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if bill != nil {
			items, err := s.DB.GetOrderItems(ctx, tx, orderID)
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := s.Stock.Increment(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			if err := s.DB.UpdateBillPayStatus(ctx, tx, bill.BillID, models.BillCancelled, time.Time{}); err != nil {
				return err
			}
		}

		if err := s.DB.UpdateOrderPayStatus(ctx, tx, orderID, models.PayStatusCanceled); err != nil {
			return err
		}

		updated, err = s.DB.GetOrderByID(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.LogOrder("CANCEL", orderID, "order canceled")
	return updated, nil
}

// GetOrder loads an order with its items, payments and bill. Ownership is
// the caller's concern.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.OrderDetail, error) {
	idb := bun.IDB(s.DB.Bun)

	order, err := s.DB.GetOrderByID(ctx, idb, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	items, err := s.DB.GetOrderItems(ctx, idb, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := s.DB.GetPayments(ctx, idb, orderID)
	if err != nil {
		return nil, err
	}
	bill, err := s.DB.GetBillByOrderID(ctx, idb, orderID)
	if err != nil {
		return nil, err
	}

	return &models.OrderDetail{
		Order:    *order,
		Items:    items,
		Payments: payments,
		Bill:     bill,
	}, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	return s.DB.ListByCustomer(ctx, customerID)
}

func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.DB.ListAll(ctx)
}

// settle flips order and bill to paid. Orders that never went through
// checkout (no bill yet) take their stock here and get their bill created,
// mirroring what checkout would have done.
func (s *Service) settle(ctx context.Context, tx bun.Tx, order *models.Order, method models.PaymentMethod) error {
	now := time.Now()

	bill, err := s.DB.GetBillByOrderID(ctx, tx, order.OrderID)
	if err != nil {
		return err
	}
	if bill == nil {
		items, err := s.DB.GetOrderItems(ctx, tx, order.OrderID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.decrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		newBill := models.Bill{
			BillID:         utils.GenerateBillNumber(),
			OrderID:        order.OrderID,
			CustomerID:     order.CustomerID,
			TotalAmount:    order.TotalAmount,
			DiscountAmount: order.DiscountAmount,
			FinalAmount:    utils.Round2(order.AmountOwed()),
			PaymentMethod:  method,
			PayStatus:      models.BillPaid,
			CreatedAt:      now,
			PaidAt:         now,
		}
		if err := s.DB.InsertBill(ctx, tx, &newBill); err != nil {
			return err
		}
	} else if bill.PayStatus != models.BillPaid {
		if err := s.DB.UpdateBillPayStatus(ctx, tx, bill.BillID, models.BillPaid, now); err != nil {
			return err
		}
	}

	return s.DB.UpdateOrderPayStatus(ctx, tx, order.OrderID, models.PayStatusPaid)
}

// guardLines re-checks every cart line against the live catalog and stock
// before any write happens: deleted products, price drift since the line
// was added, and availability.
func (s *Service) guardLines(ctx context.Context, idb bun.IDB, lines []models.CartItem) error {
	for _, line := range lines {
		product, err := s.Catalog.GetProduct(ctx, idb, line.ProductID)
		if errors.Is(err, catalogdb.ErrProductNotFound) {
			return &StockError{ProductID: line.ProductID, Requested: line.Quantity}
		}
		if err != nil {
			return err
		}
		if product.Deleted {
			return &StockError{
				ProductID:   line.ProductID,
				ProductName: product.ProductName,
				Requested:   line.Quantity,
			}
		}
		if product.Price != line.UnitPrice {
			return fmt.Errorf("%w: product %d now %.2f, cart has %.2f",
				ErrPriceChanged, line.ProductID, product.Price, line.UnitPrice)
		}

		available, found, err := s.Stock.Available(ctx, idb, line.ProductID)
		if err != nil {
			return err
		}
		if !found || available < line.Quantity {
			return &StockError{
				ProductID:   line.ProductID,
				ProductName: product.ProductName,
				Requested:   line.Quantity,
				Available:   available,
			}
		}
	}
	return nil
}

// decrementStock wraps the conditional decrement, rebuilding the rich stock
// error when the guard in the UPDATE rejects the write.
func (s *Service) decrementStock(ctx context.Context, tx bun.Tx, productID int64, quantity int) error {
	err := s.Stock.Decrement(ctx, tx, productID, quantity)
	if !errors.Is(err, invdb.ErrStockConflict) {
		return err
	}

	available, _, availErr := s.Stock.Available(ctx, tx, productID)
	if availErr != nil {
		available = 0
	}
	stockErr := &StockError{ProductID: productID, Requested: quantity, Available: available}
	if product, prodErr := s.Catalog.GetProduct(ctx, tx, productID); prodErr == nil {
		stockErr.ProductName = product.ProductName
	}
	return stockErr
}
