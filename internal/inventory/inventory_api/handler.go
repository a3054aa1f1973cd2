package inventory_api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"store-backend/internal/inventory"
	"store-backend/internal/logger"
	"store-backend/internal/models"
	"store-backend/internal/utils"
)

type Handler struct {
	Inventory *inventory.Service
	Logger    *logger.Logger
}

func NewHandler(svc *inventory.Service, log *logger.Logger) *Handler {
	return &Handler{Inventory: svc, Logger: log}
}

// ValidateCart is the advisory pre-checkout stock preview.
func (h *Handler) ValidateCart(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Items) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Items are required", nil)
		return
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			utils.WriteError(w, http.StatusBadRequest, "Each item needs a positive product_id and quantity", nil)
			return
		}
	}

	result, err := h.Inventory.ValidateCart(r.Context(), nil, req.Items)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ValidateCart: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Stock validation failed", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Stock validated", result))
}

func (h *Handler) ListInventories(w http.ResponseWriter, r *http.Request) {
	inventories, err := h.Inventory.ListInventories(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListInventories: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list inventories", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Inventories retrieved", inventories))
}

func (h *Handler) GetByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product id", err)
		return
	}

	row, err := h.Inventory.GetByProductID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			utils.WriteError(w, http.StatusNotFound, "Inventory not found", nil)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetByProduct: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load inventory", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Inventory retrieved", row))
}
