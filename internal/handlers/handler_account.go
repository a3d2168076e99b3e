package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/finlens/bank_recon_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: as,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountSvcFacade) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:id", h.getAccount)
		accounts.GET("/:id/balance", h.getAccountBalance)
		accounts.DELETE("/:id", h.deactivateAccount)
	}
}

// createAccount godoc
// @Summary Create a new account
// @Description Creates a new ledger account in the organization's chart of accounts
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.Response{data=dto.AccountResponse}
// @Failure 400 {object} dto.Response "Invalid input or account code already exists"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
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
	logger.Info("Received request to create account", slog.String("account_code", req.Code), slog.String("currency_code", req.CurrencyCode))

	newAccount, err := h.accountService.CreateAccount(c.Request.Context(), organizationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create account")
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", newAccount.AccountID))
	respondSuccess(c, http.StatusCreated, dto.ToAccountResponse(newAccount))
}

// getAccount godoc
// @Summary Get an account by ID
// @Description Retrieves details for a specific account by its ID
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.Response{data=dto.AccountResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Account not found"
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	logger = logger.With(slog.String("target_account_id", accountID))

	account, err := h.accountService.GetAccountByID(c.Request.Context(), organizationID, accountID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve account")
		return
	}

	logger.Debug("Account retrieved successfully")
	respondSuccess(c, http.StatusOK, dto.ToAccountResponse(account))
}

// listAccounts godoc
// @Summary List accounts
// @Description Retrieves a paginated list of active accounts in the organization
// @Tags accounts
// @Produce  json
// @Param   limit query int false "Max accounts to return" default(20)
// @Param   offset query int false "Number of accounts to skip" default(0)
// @Success 200 {object} dto.Response{data=dto.ListAccountsResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var params dto.ListAccountsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListAccounts", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, "Invalid query parameters: "+err.Error())
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), organizationID, params.Limit, params.Offset)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list accounts")
		return
	}

	respondSuccess(c, http.StatusOK, dto.ListAccountsResponse{Accounts: dto.ToListAccountResponse(accounts)})
}

// getAccountBalance godoc
// @Summary Get an account balance
// @Description Retrieves the materialized balance of an account
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.Response{data=dto.AccountBalanceResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Account not found"
// @Security BearerAuth
// @Router /accounts/{id}/balance [get]
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	organizationID, ok := middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	balance, err := h.accountService.GetAccountBalance(c.Request.Context(), organizationID, accountID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve account balance")
		return
	}

	respondSuccess(c, http.StatusOK, dto.AccountBalanceResponse{AccountID: accountID, Balance: balance})
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description Marks an account inactive; its history stays intact
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 204 "Account deactivated"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Account not found"
// @Security BearerAuth
// @Router /accounts/{id} [delete]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

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

	logger = logger.With(slog.String("target_account_id", accountID))

	if err := h.accountService.DeactivateAccount(c.Request.Context(), organizationID, accountID, userID); err != nil {
		respondServiceError(c, logger, err, "Failed to deactivate account")
		return
	}

	logger.Info("Account deactivated successfully")
	c.Status(http.StatusNoContent)
}
