package catalog

import (
	"context"
	"fmt"

	"store-backend/internal/catalog/db"
	"store-backend/internal/logger"
	"store-backend/internal/models"
)

// Service exposes read-only catalog lookups. Product writes happen outside
// this backend; the count cache still exposes Invalidate for them.
type Service struct {
	DB     *db.DB
	Cache  *CountCache
	Logger *logger.Logger
}

func NewService(dbLayer *db.DB, cache *CountCache, log *logger.Logger) *Service {
	return &Service{DB: dbLayer, Cache: cache, Logger: log}
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.DB.ListProducts(ctx)
}

// CountProducts serves the product count through the cache, falling back
// to the database on a miss or a Redis error.
func (s *Service) CountProducts(ctx context.Context) (int64, error) {
	if s.Cache != nil {
		count, hit, err := s.Cache.Get(ctx)
		if err != nil {
			s.Logger.Warn("CATALOG", fmt.Sprintf("product count cache read failed: %v", err))
		} else if hit {
			return count, nil
		}
	}

	count, err := s.DB.CountProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, count); err != nil {
			s.Logger.Warn("CATALOG", fmt.Sprintf("product count cache write failed: %v", err))
		}
	}
	return count, nil
}

// InvalidateProductCount drops the cached count after a product write.
func (s *Service) InvalidateProductCount(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Invalidate(ctx)
}
