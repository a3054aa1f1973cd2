package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	cartdb "store-backend/internal/cart/db"
	catalogdb "store-backend/internal/catalog/db"
	"store-backend/internal/logger"
	"store-backend/internal/models"
	"store-backend/internal/utils"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrProductDeleted   = errors.New("product is no longer available")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrCartItemNotFound = errors.New("cart item not found")
)

type Service struct {
	DB      *cartdb.DB
	Catalog *catalogdb.DB
	Logger  *logger.Logger
}

func NewService(db *cartdb.DB, catalog *catalogdb.DB, log *logger.Logger) *Service {
	return &Service{DB: db, Catalog: catalog, Logger: log}
}

// GetCart returns the customer's cart with product names and subtotals.
func (s *Service) GetCart(ctx context.Context, customerID int64) (*models.CartView, error) {
	items, err := s.DB.ListByCustomer(ctx, s.DB.Bun, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	view := &models.CartView{Items: make([]models.CartItemView, 0, len(items))}
	for _, item := range items {
		name := ""
		if product, err := s.Catalog.GetProduct(ctx, s.DB.Bun, item.ProductID); err == nil {
			name = product.ProductName
		}
		subtotal := utils.Round2(item.Subtotal())
		view.Items = append(view.Items, models.CartItemView{
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    subtotal,
		})
		view.Total = utils.Round2(view.Total + subtotal)
	}
	return view, nil
}

// AddItem adds a product to the cart, snapshotting the current catalog
// price. Adding a product already in the cart accumulates quantity.
func (s *Service) AddItem(ctx context.Context, customerID int64, req models.AddCartItemRequest) error {
	if req.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	product, err := s.Catalog.GetProduct(ctx, s.DB.Bun, req.ProductID)
	if err != nil {
		if errors.Is(err, catalogdb.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to look up product %d: %w", req.ProductID, err)
	}
	if product.Deleted {
		return ErrProductDeleted
	}

	existing, err := s.DB.GetItem(ctx, s.DB.Bun, customerID, req.ProductID)
	if err != nil {
		return fmt.Errorf("failed to check cart: %w", err)
	}
	if existing != nil {
		return s.DB.UpdateQuantity(ctx, s.DB.Bun, existing.CartItemID, existing.Quantity+req.Quantity)
	}

	item := models.CartItem{
		CartItemID: uuid.NewString(),
		CustomerID: customerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		UnitPrice:  product.Price,
		AddedAt:    time.Now(),
	}
	if err := s.DB.Insert(ctx, s.DB.Bun, &item); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (s *Service) UpdateItem(ctx context.Context, customerID, productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	existing, err := s.DB.GetItem(ctx, s.DB.Bun, customerID, productID)
	if err != nil {
		return fmt.Errorf("failed to check cart: %w", err)
	}
	if existing == nil {
		return ErrCartItemNotFound
	}
	return s.DB.UpdateQuantity(ctx, s.DB.Bun, existing.CartItemID, quantity)
}

func (s *Service) RemoveItem(ctx context.Context, customerID, productID int64) error {
	affected, err := s.DB.DeleteItem(ctx, s.DB.Bun, customerID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (s *Service) ClearCart(ctx context.Context, customerID int64) error {
	return s.DB.Clear(ctx, s.DB.Bun, customerID)
}
