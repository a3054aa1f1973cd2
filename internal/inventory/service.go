package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	catalogdb "store-backend/internal/catalog/db"
	invdb "store-backend/internal/inventory/db"
	"store-backend/internal/logger"
	"store-backend/internal/models"
)

type Service struct {
	DB      *invdb.DB
	Catalog *catalogdb.DB
	Logger  *logger.Logger
}

func NewService(db *invdb.DB, catalog *catalogdb.DB, log *logger.Logger) *Service {
	return &Service{DB: db, Catalog: catalog, Logger: log}
}

// ValidateCart classifies each requested line: soft-deleted products first,
// then missing-inventory or short-stock lines with requested and available
// quantities. This read is advisory; checkout re-verifies transactionally.
func (s *Service) ValidateCart(ctx context.Context, idb bun.IDB, items []models.CartLine) (*models.ValidateCartResponse, error) {
	if idb == nil {
		idb = s.DB.Bun
	}

	response := &models.ValidateCartResponse{
		IsValid:            true,
		OutOfStockProducts: []models.OutOfStockProduct{},
		DeletedProducts:    []models.DeletedProduct{},
	}

	for _, item := range items {
		productName := "Unknown Product"
		product, err := s.Catalog.GetProduct(ctx, idb, item.ProductID)
		if err != nil && !errors.Is(err, catalogdb.ErrProductNotFound) {
			return nil, fmt.Errorf("failed to look up product %d: %w", item.ProductID, err)
		}
		if product != nil {
			productName = product.ProductName
			if product.Deleted {
				response.IsValid = false
				response.DeletedProducts = append(response.DeletedProducts, models.DeletedProduct{
					ProductID:   item.ProductID,
					ProductName: productName,
					Quantity:    item.Quantity,
				})
				continue
			}
		}

		available, found, err := s.DB.Available(ctx, idb, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to read inventory for product %d: %w", item.ProductID, err)
		}
		if !found || available < item.Quantity {
			response.IsValid = false
			response.OutOfStockProducts = append(response.OutOfStockProducts, models.OutOfStockProduct{
				ProductID:         item.ProductID,
				ProductName:       productName,
				RequestedQuantity: item.Quantity,
				AvailableQuantity: available,
			})
		}
	}

	return response, nil
}

func (s *Service) ListInventories(ctx context.Context) ([]models.InventoryWithProduct, error) {
	return s.DB.List(ctx)
}

func (s *Service) GetByProductID(ctx context.Context, productID int64) (*models.InventoryWithProduct, error) {
	return s.DB.GetByProductID(ctx, productID)
}
