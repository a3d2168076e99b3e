package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/finlens/bank_recon_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// bankTransactionHandler handles HTTP requests related to imported bank feed lines.
type bankTransactionHandler struct {
	bankTransactionService portssvc.BankTransactionSvcFacade
}

// newBankTransactionHandler creates a new bankTransactionHandler.
func newBankTransactionHandler(bts portssvc.BankTransactionSvcFacade) *bankTransactionHandler {
	return &bankTransactionHandler{
		bankTransactionService: bts,
	}
}

// registerBankTransactionRoutes registers routes related to bank transactions.
func registerBankTransactionRoutes(rg *gin.RouterGroup, bankTransactionService portssvc.BankTransactionSvcFacade) {
	h := newBankTransactionHandler(bankTransactionService)

	bankTransactions := rg.Group("/bank-transactions")
	{
		bankTransactions.POST("", h.importBankTransaction)
		bankTransactions.GET("/:id", h.getBankTransaction)
	}
}

// importBankTransaction godoc
// @Summary Import a bank transaction
// @Description Records one bank-feed line; re-importing the same bank-side reference is rejected
// @Tags bank-transactions
// @Accept  json
// @Produce  json
// @Param   bankTransaction body dto.ImportBankTransactionRequest true "Bank transaction details"
// @Success 201 {object} dto.Response{data=dto.BankTransactionResponse}
// @Failure 400 {object} dto.Response "Invalid input or reference already imported"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /bank-transactions [post]
func (h *bankTransactionHandler) importBankTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ImportBankTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ImportBankTransaction", slog.String("error", err.Error()))
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

	bankTxn, err := h.bankTransactionService.ImportBankTransaction(c.Request.Context(), organizationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to import bank transaction")
		return
	}

	logger.Info("Bank transaction imported successfully", slog.String("bank_transaction_id", bankTxn.BankTransactionID), slog.String("reference", bankTxn.Reference))
	respondSuccess(c, http.StatusCreated, dto.ToBankTransactionResponse(bankTxn))
}

// getBankTransaction godoc
// @Summary Get a bank transaction by ID
// @Description Retrieves an imported bank-feed line including its match state
// @Tags bank-transactions
// @Produce  json
// @Param   id path string true "Bank transaction ID"
// @Success 200 {object} dto.Response{data=dto.BankTransactionResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Bank transaction not found"
// @Security BearerAuth
// @Router /bank-transactions/{id} [get]
func (h *bankTransactionHandler) getBankTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bankTransactionID := c.Param("id")

	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	logger = logger.With(slog.String("bank_transaction_id", bankTransactionID))

	bankTxn, err := h.bankTransactionService.GetBankTransactionByID(c.Request.Context(), organizationID, bankTransactionID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve bank transaction")
		return
	}

	logger.Debug("Bank transaction retrieved successfully")
	respondSuccess(c, http.StatusOK, dto.ToBankTransactionResponse(bankTxn))
}
