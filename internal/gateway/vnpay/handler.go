package vnpay

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"store-backend/internal/auth"
	"store-backend/internal/logger"
	"store-backend/internal/order"
	"store-backend/internal/utils"
)

// gateway response code for a successful payment
const responseCodeSuccess = "00"

type Handler struct {
	Client *Client
	Orders *order.Service
	Logger *logger.Logger
}

func NewHandler(client *Client, orders *order.Service, log *logger.Logger) *Handler {
	return &Handler{Client: client, Orders: orders, Logger: log}
}

// CreatePaymentURL builds a signed VNPay redirect for the caller's own
// pending order.
func (h *Handler) CreatePaymentURL(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFrom(r.Context())

	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		utils.WriteError(w, http.StatusBadRequest, "orderId is required", nil)
		return
	}

	detail, err := h.Orders.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Order not found", err)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreatePaymentURL: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load order", nil)
		return
	}
	if detail.Order.CustomerID != ident.CustomerID {
		utils.WriteError(w, http.StatusForbidden, "Order belongs to another customer", nil)
		return
	}

	paymentURL, err := h.Client.BuildPaymentURL(orderID, detail.Order.AmountOwed(), clientIP(r))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePaymentURL: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to build payment URL", nil)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Payment URL created", map[string]string{
		"payment_url": paymentURL,
	}))
}

// Callback is the VNPay return endpoint. An invalid signature writes
// nothing; response code 00 settles the order.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	if !h.Client.VerifySignature(params) {
		h.Logger.LogSecurity("VNPAY_SIGNATURE", "callback with invalid signature rejected")
		utils.WriteError(w, http.StatusBadRequest, "Invalid signature", nil)
		return
	}

	orderID := params.Get("vnp_TxnRef")
	responseCode := params.Get("vnp_ResponseCode")
	txnRef := params.Get("vnp_TransactionNo")

	if responseCode != responseCodeSuccess {
		h.Logger.LogOrder("GATEWAY_SETTLE", orderID,
			fmt.Sprintf("gateway reported failure, response code %s", responseCode))
		utils.WriteJSON(w, http.StatusOK, utils.ErrorResponse("Payment failed", "gateway response code "+responseCode))
		return
	}

	if err := h.Orders.ConfirmGatewaySettlement(r.Context(), orderID, txnRef); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Order not found", err)
			return
		}
		if errors.Is(err, order.ErrAlreadyCanceled) {
			utils.WriteError(w, http.StatusConflict, "Order is canceled", err)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("VNPayCallback: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to settle order", nil)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Payment confirmed", map[string]string{
		"order_id": orderID,
	}))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
