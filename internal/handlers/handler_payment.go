package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/finlens/bank_recon_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles HTTP requests related to payments.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

// newPaymentHandler creates a new paymentHandler.
func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{
		paymentService: ps,
	}
}

// registerPaymentRoutes registers routes related to payments.
func registerPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("/:id", h.getPayment)
		payments.POST("/:id/void", h.voidPayment)
	}
}

// createPayment godoc
// @Summary Record a payment
// @Description Records a payment, posts its ledger transaction, and optionally allocates it against outstanding invoices oldest-first
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} dto.Response{data=dto.PaymentResponse}
// @Failure 400 {object} dto.Response "Invalid input"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePayment", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	logger = logger.With(slog.String("creator_user_id", userID))

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), organizationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create payment")
		return
	}

	logger.Info("Payment created successfully", slog.String("payment_id", payment.PaymentID), slog.String("status", string(payment.Status)))
	respondSuccess(c, http.StatusCreated, dto.ToPaymentResponse(payment))
}

// getPayment godoc
// @Summary Get a payment by ID
// @Description Retrieves a payment with its invoice allocations
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} dto.Response{data=dto.PaymentResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Payment not found"
// @Security BearerAuth
// @Router /payments/{id} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("id")

	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	logger = logger.With(slog.String("payment_id", paymentID))

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), organizationID, paymentID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve payment")
		return
	}

	logger.Debug("Payment retrieved successfully")
	respondSuccess(c, http.StatusOK, dto.ToPaymentResponse(payment))
}

// voidPayment godoc
// @Summary Void a payment
// @Description Reverses the payment's ledger transaction, releases its allocations and any bank match, and marks it VOIDED
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 204 "Payment voided"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Payment not found"
// @Failure 400 {object} dto.Response "Payment already voided or locked by a finalized reconciliation"
// @Security BearerAuth
// @Router /payments/{id}/void [post]
func (h *paymentHandler) voidPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	logger = logger.With(slog.String("payment_id", paymentID))

	if err := h.paymentService.VoidPayment(c.Request.Context(), organizationID, paymentID, userID); err != nil {
		respondServiceError(c, logger, err, "Failed to void payment")
		return
	}

	logger.Info("Payment voided successfully")
	c.Status(http.StatusNoContent)
}
