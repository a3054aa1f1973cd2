package order

import (
	"fmt"

	"github.com/google/uuid"

	"store-backend/internal/models"
	"store-backend/internal/utils"
)

// BuildOrderItems maps cart lines into order items for a new order. One bad
// line rejects the whole assembly; a partially built order is never returned.
func BuildOrderItems(orderID string, lines []models.CartItem) ([]models.OrderItem, float64, error) {
	items := make([]models.OrderItem, 0, len(lines))
	var total float64

	for _, line := range lines {
		if line.ProductID <= 0 {
			return nil, 0, fmt.Errorf("%w: product id %d", ErrInvalidItem, line.ProductID)
		}
		if line.Quantity <= 0 {
			return nil, 0, fmt.Errorf("%w: quantity %d for product %d", ErrInvalidItem, line.Quantity, line.ProductID)
		}
		if line.UnitPrice < 0 {
			return nil, 0, fmt.Errorf("%w: negative price for product %d", ErrInvalidItem, line.ProductID)
		}

		subtotal := utils.Round2(line.Subtotal())
		items = append(items, models.OrderItem{
			OrderItemID: uuid.NewString(),
			OrderID:     orderID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
			Subtotal:    subtotal,
		})
		total += subtotal
	}

	return items, utils.Round2(total), nil
}
