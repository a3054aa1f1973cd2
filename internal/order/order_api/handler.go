package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"store-backend/internal/auth"
	"store-backend/internal/logger"
	"store-backend/internal/models"
	"store-backend/internal/order"
	"store-backend/internal/order/template"
	"store-backend/internal/promotion"
	"store-backend/internal/utils"
)

type Handler struct {
	Orders  *order.Service
	Invoice *template.InvoicePDFGenerator
	Logger  *logger.Logger
}

func NewHandler(svc *order.Service, invoice *template.InvoicePDFGenerator, log *logger.Logger) *Handler {
	return &Handler{Orders: svc, Invoice: invoice, Logger: log}
}

// Preview prices the caller's cart without committing anything.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	var req models.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	preview, err := h.Orders.Preview(r.Context(), ident.CustomerID, req)
	if err != nil {
		h.writeOrderError(w, "Preview", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order preview", preview))
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	detail, err := h.Orders.Checkout(r.Context(), ident.CustomerID, req)
	if err != nil {
		h.writeOrderError(w, "Checkout", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Order placed", detail))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	orderID := chi.URLParam(r, "orderId")

	detail, err := h.Orders.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeOrderError(w, "GetOrder", err)
		return
	}
	if detail.Order.CustomerID != ident.CustomerID {
		utils.WriteError(w, http.StatusForbidden, "Order belongs to another customer", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order retrieved", detail))
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	orders, err := h.Orders.ListByCustomer(r.Context(), ident.CustomerID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMyOrders: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list orders", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Orders retrieved", orders))
}

// InvoicePDF streams a rendered invoice for the caller's own order.
func (h *Handler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	orderID := chi.URLParam(r, "orderId")

	detail, err := h.Orders.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeOrderError(w, "InvoicePDF", err)
		return
	}
	if detail.Order.CustomerID != ident.CustomerID {
		utils.WriteError(w, http.StatusForbidden, "Order belongs to another customer", nil)
		return
	}

	pdf, err := h.Invoice.Generate(*detail)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("InvoicePDF: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to render invoice", nil)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", orderID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// --- staff handlers ---

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListAll(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListAllOrders: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list orders", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Orders retrieved", orders))
}

func (h *Handler) GetOrderStaff(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	detail, err := h.Orders.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeOrderError(w, "GetOrderStaff", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order retrieved", detail))
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Orders.RecordPayment(r.Context(), orderID, req)
	if err != nil {
		h.writeOrderError(w, "RecordPayment", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Payment recorded", updated))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	updated, err := h.Orders.Cancel(r.Context(), orderID)
	if err != nil {
		h.writeOrderError(w, "CancelOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Order canceled", updated))
}

func (h *Handler) writeOrderError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		utils.WriteError(w, http.StatusNotFound, "Order not found", err)
	case errors.Is(err, order.ErrNotOwner):
		utils.WriteError(w, http.StatusForbidden, "Order belongs to another customer", err)
	case errors.Is(err, order.ErrCheckoutInProgress):
		utils.WriteError(w, http.StatusConflict, "Checkout already in progress", err)
	case errors.Is(err, order.ErrInsufficientStock):
		utils.WriteError(w, http.StatusConflict, "Insufficient stock", err)
	case errors.Is(err, order.ErrAlreadyCanceled),
		errors.Is(err, order.ErrOrderAlreadyPaid),
		errors.Is(err, order.ErrCancelWindowClosed),
		errors.Is(err, order.ErrPaymentExceedsTotal):
		utils.WriteError(w, http.StatusConflict, "Invalid order state", err)
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, order.ErrPriceChanged),
		errors.Is(err, order.ErrInvalidItem):
		utils.WriteError(w, http.StatusBadRequest, "Invalid checkout request", err)
	case errors.Is(err, promotion.ErrNotFound),
		errors.Is(err, promotion.ErrInactive),
		errors.Is(err, promotion.ErrNotYetValid),
		errors.Is(err, promotion.ErrExpired),
		errors.Is(err, promotion.ErrUsageExceeded),
		errors.Is(err, promotion.ErrBelowMinimum):
		utils.WriteError(w, http.StatusBadRequest, "Promotion not applicable", err)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "Order operation failed", nil)
	}
}
