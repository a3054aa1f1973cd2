package promotion_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"store-backend/internal/logger"
	"store-backend/internal/models"
	"store-backend/internal/promotion"
	"store-backend/internal/utils"
)

type Handler struct {
	Promotions *promotion.Service
	Logger     *logger.Logger
}

func NewHandler(svc *promotion.Service, log *logger.Logger) *Handler {
	return &Handler{Promotions: svc, Logger: log}
}

// Apply validates and prices a promo code against a total without
// consuming usage.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var req models.ApplyPromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PromoCode == "" && req.PromoID == "" {
		utils.WriteError(w, http.StatusBadRequest, "promo_code or promo_id is required", nil)
		return
	}

	result, err := h.Promotions.Evaluate(r.Context(), nil,
		promotion.Ref{Code: req.PromoCode, ID: req.PromoID}, req.TotalAmount)
	if err != nil {
		h.writePromoError(w, "Apply", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Promotion applied", result))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := h.Promotions.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListPromotions: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list promotions", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Promotions retrieved", promos))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	promoID := chi.URLParam(r, "promoId")
	promo, err := h.Promotions.Get(r.Context(), promoID)
	if err != nil {
		h.writePromoError(w, "GetPromotion", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Promotion retrieved", promo))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var promo models.Promotion
	if err := json.NewDecoder(r.Body).Decode(&promo); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.Promotions.Create(r.Context(), promo)
	if err != nil {
		h.writePromoError(w, "CreatePromotion", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Promotion created", created))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	promoID := chi.URLParam(r, "promoId")

	var promo models.Promotion
	if err := json.NewDecoder(r.Body).Decode(&promo); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Promotions.Update(r.Context(), promoID, promo)
	if err != nil {
		h.writePromoError(w, "UpdatePromotion", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Promotion updated", updated))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	promoID := chi.URLParam(r, "promoId")
	if err := h.Promotions.Delete(r.Context(), promoID); err != nil {
		h.writePromoError(w, "DeletePromotion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writePromoError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, promotion.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Promotion not found", err)
	case errors.Is(err, promotion.ErrCodeExists),
		errors.Is(err, promotion.ErrImmutableAfterUse),
		errors.Is(err, promotion.ErrInUse):
		utils.WriteError(w, http.StatusConflict, "Promotion conflict", err)
	case errors.Is(err, promotion.ErrInactive),
		errors.Is(err, promotion.ErrNotYetValid),
		errors.Is(err, promotion.ErrExpired),
		errors.Is(err, promotion.ErrUsageExceeded),
		errors.Is(err, promotion.ErrBelowMinimum),
		errors.Is(err, promotion.ErrInvalid):
		utils.WriteError(w, http.StatusBadRequest, "Promotion not applicable", err)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "Promotion operation failed", nil)
	}
}
