package catalog_api

import (
	"fmt"
	"net/http"

	"store-backend/internal/catalog"
	"store-backend/internal/logger"
	"store-backend/internal/utils"
)

type Handler struct {
	Catalog *catalog.Service
	Logger  *logger.Logger
}

func NewHandler(svc *catalog.Service, log *logger.Logger) *Handler {
	return &Handler{Catalog: svc, Logger: log}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.ListProducts(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListProducts: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list products", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Products retrieved", products))
}

func (h *Handler) CountProducts(w http.ResponseWriter, r *http.Request) {
	count, err := h.Catalog.CountProducts(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CountProducts: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to count products", nil)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Product count retrieved", map[string]int64{"count": count}))
}
