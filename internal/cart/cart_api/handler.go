package cart_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"store-backend/internal/auth"
	"store-backend/internal/cart"
	"store-backend/internal/logger"
	"store-backend/internal/models"
	"store-backend/internal/utils"
)

type Handler struct {
	Cart   *cart.Service
	Logger *logger.Logger
}

func NewHandler(svc *cart.Service, log *logger.Logger) *Handler {
	return &Handler{Cart: svc, Logger: log}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	view, err := h.Cart.GetCart(r.Context(), ident.CustomerID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetCart: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load cart", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Cart retrieved", view))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	var req models.AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Cart.AddItem(r.Context(), ident.CustomerID, req); err != nil {
		h.writeCartError(w, "AddItem", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Item added to cart", nil))
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product id", err)
		return
	}

	var req models.UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Cart.UpdateItem(r.Context(), ident.CustomerID, productID, req.Quantity); err != nil {
		h.writeCartError(w, "UpdateItem", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Cart item updated", nil))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product id", err)
		return
	}

	if err := h.Cart.RemoveItem(r.Context(), ident.CustomerID, productID); err != nil {
		h.writeCartError(w, "RemoveItem", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Cart item removed", nil))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	if err := h.Cart.ClearCart(r.Context(), ident.CustomerID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ClearCart: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to clear cart", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Cart cleared", nil))
}

func (h *Handler) writeCartError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		utils.WriteError(w, http.StatusNotFound, "Product not found", err)
	case errors.Is(err, cart.ErrCartItemNotFound):
		utils.WriteError(w, http.StatusNotFound, "Cart item not found", err)
	case errors.Is(err, cart.ErrProductDeleted), errors.Is(err, cart.ErrInvalidQuantity):
		utils.WriteError(w, http.StatusBadRequest, "Invalid cart operation", err)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "Cart operation failed", nil)
	}
}
