package handlers

import (
	"log/slog"
	"net/http"

	"github.com/finlens/bank_recon_app/internal/core/domain"
	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/finlens/bank_recon_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles HTTP requests related to transactions and ledger entries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ls,
	}
}

// registerLedgerRoutes registers routes related to the double-entry ledger.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.postTransaction)
		transactions.GET("/:id", h.getTransaction)
		transactions.POST("/:id/reverse", h.reverseTransaction)
		transactions.POST("/:id/void", h.voidTransaction)
	}

	rg.GET("/accounts/:id/entries", h.listAccountEntries)
	rg.GET("/accounts/:id/recomputed-balance", h.getRecomputedBalance)
}

// postTransaction godoc
// @Summary Post a balanced transaction
// @Description Validates and persists a balanced journal transaction with its ledger entries
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction body dto.PostTransactionRequest true "Transaction and entries"
// @Success 201 {object} dto.Response{data=dto.TransactionResponse}
// @Failure 400 {object} dto.Response "Invalid input or unbalanced entries"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /transactions [post]
func (h *ledgerHandler) postTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for PostTransaction", slog.String("error", err.Error()))
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

	txn, err := h.ledgerService.PostTransaction(c.Request.Context(), organizationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to post transaction")
		return
	}

	logger.Info("Transaction posted successfully", slog.String("transaction_id", txn.TransactionID), slog.String("number", txn.Number))
	respondSuccess(c, http.StatusCreated, dto.ToTransactionResponse(txn))
}

// getTransaction godoc
// @Summary Get a transaction by ID
// @Description Retrieves a transaction with its ledger entries
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.Response{data=dto.GetTransactionResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Transaction not found"
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	logger = logger.With(slog.String("transaction_id", transactionID))

	txn, err := h.ledgerService.GetTransactionByID(c.Request.Context(), organizationID, transactionID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve transaction")
		return
	}

	logger.Debug("Transaction retrieved successfully")
	respondSuccess(c, http.StatusOK, dto.ToGetTransactionResponse(txn))
}

// reverseTransaction godoc
// @Summary Reverse a transaction
// @Description Posts a mirror-image transaction dated today (or the supplied date); the original stays POSTED with reversal linkage
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Param   reversal body dto.ReverseTransactionRequest false "Optional reversal date"
// @Success 201 {object} dto.Response{data=dto.TransactionResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Transaction not found"
// @Failure 400 {object} dto.Response "Transaction already reversed or voided"
// @Security BearerAuth
// @Router /transactions/{id}/reverse [post]
func (h *ledgerHandler) reverseTransaction(c *gin.Context) {
	h.reverse(c, false)
}

// voidTransaction godoc
// @Summary Void a transaction
// @Description Posts a mirror-image transaction dated today (or the supplied date) and marks the original VOID
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Param   reversal body dto.ReverseTransactionRequest false "Optional reversal date"
// @Success 201 {object} dto.Response{data=dto.TransactionResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Transaction not found"
// @Failure 400 {object} dto.Response "Transaction already reversed or voided"
// @Security BearerAuth
// @Router /transactions/{id}/void [post]
func (h *ledgerHandler) voidTransaction(c *gin.Context) {
	h.reverse(c, true)
}

func (h *ledgerHandler) reverse(c *gin.Context, void bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	var req dto.ReverseTransactionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for reverse transaction", slog.String("error", err.Error()))
			respondError(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
			return
		}
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

	logger = logger.With(slog.String("transaction_id", transactionID))

	var txn *domain.Transaction
	var err error
	if void {
		txn, err = h.ledgerService.VoidTransaction(c.Request.Context(), organizationID, transactionID, req.TransactionDate, userID)
	} else {
		txn, err = h.ledgerService.ReverseTransaction(c.Request.Context(), organizationID, transactionID, req.TransactionDate, userID)
	}
	if err != nil {
		respondServiceError(c, logger, err, "Failed to reverse transaction")
		return
	}

	logger.Info("Transaction reversed successfully", slog.String("reversal_id", txn.TransactionID), slog.Bool("voided_original", void))
	respondSuccess(c, http.StatusCreated, dto.ToTransactionResponse(txn))
}

// listAccountEntries godoc
// @Summary List ledger entries for an account
// @Description Retrieves a token-paginated list of entries for an account, newest first
// @Tags transactions
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   limit query int false "Max entries to return" default(20)
// @Param   nextToken query string false "Pagination token from the previous page"
// @Success 200 {object} dto.Response{data=dto.ListEntriesResponse}
// @Failure 400 {object} dto.Response "Invalid pagination token"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Account not found"
// @Security BearerAuth
// @Router /accounts/{id}/entries [get]
func (h *ledgerHandler) listAccountEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListAccountEntries", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, "Invalid query parameters: "+err.Error())
		return
	}

	logger = logger.With(slog.String("account_id", accountID))

	resp, err := h.ledgerService.ListEntriesByAccount(c.Request.Context(), organizationID, accountID, params)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list account entries")
		return
	}

	respondSuccess(c, http.StatusOK, resp)
}

// getRecomputedBalance godoc
// @Summary Recompute an account balance from its entries
// @Description Re-derives the balance from posted ledger entries, bypassing the stored projection
// @Tags transactions
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.Response{data=dto.AccountBalanceResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Account not found"
// @Security BearerAuth
// @Router /accounts/{id}/recomputed-balance [get]
func (h *ledgerHandler) getRecomputedBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	logger = logger.With(slog.String("account_id", accountID))

	balance, err := h.ledgerService.RecomputeAccountBalance(c.Request.Context(), organizationID, accountID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to recompute account balance")
		return
	}

	respondSuccess(c, http.StatusOK, dto.AccountBalanceResponse{AccountID: accountID, Balance: balance})
}
