package bill_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"store-backend/internal/auth"
	"store-backend/internal/bill"
	"store-backend/internal/logger"
	"store-backend/internal/models"
	"store-backend/internal/utils"
)

type Handler struct {
	Bills  *bill.Service
	Logger *logger.Logger
}

func NewHandler(svc *bill.Service, log *logger.Logger) *Handler {
	return &Handler{Bills: svc, Logger: log}
}

func (h *Handler) ListMyBills(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	bills, err := h.Bills.ListByCustomer(r.Context(), ident.CustomerID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMyBills: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list bills", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Bills retrieved", bills))
}

func (h *Handler) GetMyBill(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())
	billID := chi.URLParam(r, "billId")

	found, err := h.Bills.GetByID(r.Context(), billID)
	if err != nil {
		h.writeBillError(w, "GetMyBill", err)
		return
	}
	if found.CustomerID != ident.CustomerID {
		utils.WriteError(w, http.StatusForbidden, "Bill belongs to another customer", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Bill retrieved", found))
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "billId")

	found, err := h.Bills.GetByID(r.Context(), billID)
	if err != nil {
		h.writeBillError(w, "GetBill", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Bill retrieved", found))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	billID := chi.URLParam(r, "billId")

	var req models.UpdateBillStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Bills.UpdateStatus(r.Context(), billID, req.Status)
	if err != nil {
		h.writeBillError(w, "UpdateBillStatus", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Bill status updated", updated))
}

func (h *Handler) writeBillError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, bill.ErrBillNotFound):
		utils.WriteError(w, http.StatusNotFound, "Bill not found", err)
	case errors.Is(err, bill.ErrInvalidStatus):
		utils.WriteError(w, http.StatusBadRequest, "Invalid bill status", err)
	case errors.Is(err, bill.ErrPaidBillImmutable):
		utils.WriteError(w, http.StatusConflict, "Paid bills cannot be cancelled", err)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "Bill operation failed", nil)
	}
}
