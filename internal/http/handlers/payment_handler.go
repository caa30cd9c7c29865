// README: Payment handlers; intent creation and confirmation.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideflow/internal/modules/payment"
	"rideflow/internal/types"
)

type PaymentHandler struct {
	payments *payment.Service
}

func NewPaymentHandler(payments *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type paymentReq struct {
	BookingID string `json:"bookingId"`
}

func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil || req.BookingID == "" {
		writeError(c, http.StatusBadRequest, "bookingId required")
		return
	}
	intent, err := h.payments.CreateIntent(c.Request.Context(), types.ID(req.BookingID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, intent)
}

func (h *PaymentHandler) Verify(c *gin.Context) {
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil || req.BookingID == "" {
		writeError(c, http.StatusBadRequest, "bookingId required")
		return
	}
	p, err := h.payments.Confirm(c.Request.Context(), types.ID(req.BookingID))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}
