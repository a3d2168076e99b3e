package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finlens/bank_recon_app/internal/core/ports/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/finlens/bank_recon_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reconciliationHandler handles HTTP requests for reconciliation sessions,
// matching, clearing and adjustments.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
	matchingService       portssvc.MatchingSvcFacade
	clearingService       portssvc.ClearingSvcFacade
	adjustmentService     portssvc.AdjustmentSvcFacade
}

// newReconciliationHandler creates a new reconciliationHandler.
func newReconciliationHandler(
	rs portssvc.ReconciliationSvcFacade,
	ms portssvc.MatchingSvcFacade,
	cs portssvc.ClearingSvcFacade,
	as portssvc.AdjustmentSvcFacade,
) *reconciliationHandler {
	return &reconciliationHandler{
		reconciliationService: rs,
		matchingService:       ms,
		clearingService:       cs,
		adjustmentService:     as,
	}
}

// registerReconciliationRoutes registers routes related to reconciliation sessions.
func registerReconciliationRoutes(
	rg *gin.RouterGroup,
	reconciliationService portssvc.ReconciliationSvcFacade,
	matchingService portssvc.MatchingSvcFacade,
	clearingService portssvc.ClearingSvcFacade,
	adjustmentService portssvc.AdjustmentSvcFacade,
) {
	h := newReconciliationHandler(reconciliationService, matchingService, clearingService, adjustmentService)

	reconciliations := rg.Group("/reconciliations")
	{
		reconciliations.POST("", h.createReconciliation)
		reconciliations.GET("/:id", h.getReconciliation)
		reconciliations.GET("/:id/matches", h.findMatches)
		reconciliations.POST("/:id/match", h.matchTransaction)
		reconciliations.POST("/:id/bulk-match", h.bulkMatch)
		reconciliations.GET("/:id/items", h.getClearableItems)
		reconciliations.POST("/:id/clear", h.toggleClear)
		reconciliations.POST("/:id/adjustments", h.createAdjustment)
		reconciliations.POST("/:id/finalize", h.finalizeReconciliation)
	}

	// Unmatch hangs off the bank transaction: the session it was matched in is
	// recorded on the pairing itself.
	rg.POST("/bank-transactions/:id/unmatch", h.unmatchTransaction)
}

// authContext pulls the caller identity out of the request context.
func authContext(c *gin.Context, logger *slog.Logger) (userID, organizationID string, ok bool) {
	userID, ok = middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return "", "", false
	}
	organizationID, ok = middleware.GetOrganizationIDFromContext(c)
	if !ok {
		logger.Error("Organization ID not found in context")
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return "", "", false
	}
	return userID, organizationID, true
}

// createReconciliation godoc
// @Summary Open a reconciliation session
// @Description Opens a session for a bank account and statement date; the opening balance carries over from the last finalized session
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   reconciliation body dto.CreateReconciliationRequest true "Session details"
// @Success 201 {object} dto.Response{data=dto.ReconciliationResponse}
// @Failure 400 {object} dto.Response "Invalid input"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /reconciliations [post]
func (h *reconciliationHandler) createReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateReconciliation", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	userID, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("creator_user_id", userID), slog.String("bank_account_id", req.BankAccountID))

	recon, err := h.reconciliationService.CreateReconciliation(c.Request.Context(), organizationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create reconciliation")
		return
	}

	logger.Info("Reconciliation created successfully", slog.String("reconciliation_id", recon.ReconciliationID))
	respondSuccess(c, http.StatusCreated, dto.ToReconciliationResponse(recon))
}

// getReconciliation godoc
// @Summary Get a reconciliation session
// @Description Retrieves a session with its clearing worksheet, match suggestions, and live gap figures
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} dto.Response{data=dto.ReconciliationDetailsResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Reconciliation not found"
// @Security BearerAuth
// @Router /reconciliations/{id} [get]
func (h *reconciliationHandler) getReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reconciliationID := c.Param("id")

	_, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("reconciliation_id", reconciliationID))

	details, err := h.reconciliationService.GetReconciliationDetails(c.Request.Context(), organizationID, reconciliationID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve reconciliation")
		return
	}

	logger.Debug("Reconciliation retrieved successfully")
	respondSuccess(c, http.StatusOK, details)
}

// findMatches godoc
// @Summary Suggest payment matches
// @Description Suggests payment candidates for the session's unmatched bank transactions, best candidate per transaction
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} dto.Response{data=dto.FindMatchesResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Reconciliation not found"
// @Security BearerAuth
// @Router /reconciliations/{id}/matches [get]
func (h *reconciliationHandler) findMatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reconciliationID := c.Param("id")

	_, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("reconciliation_id", reconciliationID))

	candidates, err := h.matchingService.FindMatches(c.Request.Context(), organizationID, reconciliationID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to find matches")
		return
	}

	logger.Debug("Match candidates computed", slog.Int("count", len(candidates)))
	respondSuccess(c, http.StatusOK, dto.FindMatchesResponse{Candidates: dto.ToMatchCandidateResponses(candidates)})
}

// matchTransaction godoc
// @Summary Confirm a match
// @Description Pairs one payment with one bank transaction; retrying an identical pairing is a no-op
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Param   match body dto.MatchRequest true "Pairing"
// @Success 204 "Match confirmed"
// @Failure 400 {object} dto.Response "Amount or direction mismatch, either side already matched, or the session is finalized"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /reconciliations/{id}/match [post]
func (h *reconciliationHandler) matchTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reconciliationID := c.Param("id")

	var req dto.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for MatchTransaction", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	userID, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(
		slog.String("reconciliation_id", reconciliationID),
		slog.String("payment_id", req.PaymentID),
		slog.String("bank_transaction_id", req.BankTransactionID),
	)

	if err := h.matchingService.MatchTransaction(c.Request.Context(), organizationID, reconciliationID, req, userID); err != nil {
		respondServiceError(c, logger, err, "Failed to confirm match")
		return
	}

	logger.Info("Match confirmed successfully")
	c.Status(http.StatusNoContent)
}

// unmatchTransaction godoc
// @Summary Undo a match
// @Description Unpairs a bank transaction from its payment; rejected while the session it was matched in is finalized
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Bank transaction ID"
// @Success 204 "Match removed"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Bank transaction not found"
// @Failure 400 {object} dto.Response "Not matched, or locked by a finalized session"
// @Security BearerAuth
// @Router /bank-transactions/{id}/unmatch [post]
func (h *reconciliationHandler) unmatchTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bankTransactionID := c.Param("id")

	userID, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("bank_transaction_id", bankTransactionID))

	if err := h.matchingService.UnmatchTransaction(c.Request.Context(), organizationID, bankTransactionID, userID); err != nil {
		respondServiceError(c, logger, err, "Failed to undo match")
		return
	}

	logger.Info("Match removed successfully")
	c.Status(http.StatusNoContent)
}

// bulkMatch godoc
// @Summary Confirm several matches
// @Description Applies pairings in request order, collecting per-pair failures instead of aborting the batch
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Param   pairs body dto.BulkMatchRequest true "Pairings"
// @Success 200 {object} dto.Response{data=dto.BulkMatchResponse}
// @Failure 400 {object} dto.Response "Invalid input or session is finalized"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /reconciliations/{id}/bulk-match [post]
func (h *reconciliationHandler) bulkMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reconciliationID := c.Param("id")

	var req dto.BulkMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for BulkMatch", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	userID, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("reconciliation_id", reconciliationID))

	result, err := h.matchingService.BulkMatch(c.Request.Context(), organizationID, reconciliationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to apply bulk match")
		return
	}

	logger.Info("Bulk match applied", slog.Int("matched", result.Matched), slog.Int("failed", len(result.Errors)))
	respondSuccess(c, http.StatusOK, dto.ToBulkMatchResponse(result))
}

// getClearableItems godoc
// @Summary List the clearing worksheet
// @Description Lists payments and bank transactions eligible for clearing in the session, with live gap figures
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} dto.Response{data=dto.ClearableItemsResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Reconciliation not found"
// @Security BearerAuth
// @Router /reconciliations/{id}/items [get]
func (h *reconciliationHandler) getClearableItems(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reconciliationID := c.Param("id")

	_, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("reconciliation_id", reconciliationID))

	items, err := h.clearingService.GetClearableItems(c.Request.Context(), organizationID, reconciliationID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list clearable items")
		return
	}

	respondSuccess(c, http.StatusOK, items)
}

// toggleClear godoc
// @Summary Toggle an item's cleared flag
// @Description Sets or unsets one item's cleared flag in the session
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Param   toggle body dto.ToggleClearRequest true "Item and desired state"
// @Success 204 "Cleared state updated"
// @Failure 400 {object} dto.Response "Invalid input, session finalized, or item cleared by another finalized session"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /reconciliations/{id}/clear [post]
func (h *reconciliationHandler) toggleClear(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reconciliationID := c.Param("id")

	var req dto.ToggleClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ToggleClear", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	userID, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(
		slog.String("reconciliation_id", reconciliationID),
		slog.String("item_id", req.ItemID),
		slog.String("item_type", req.ItemType),
	)

	if err := h.clearingService.ToggleClear(c.Request.Context(), organizationID, reconciliationID, req, userID); err != nil {
		respondServiceError(c, logger, err, "Failed to update cleared state")
		return
	}

	logger.Info("Cleared state updated successfully")
	c.Status(http.StatusNoContent)
}

// createAdjustment godoc
// @Summary Post a reconciliation adjustment
// @Description Posts a balanced bank-fee or interest-earned transaction and records it on the session as already cleared
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Param   adjustment body dto.CreateAdjustmentRequest true "Adjustment details"
// @Success 201 {object} dto.Response{data=dto.TransactionResponse}
// @Failure 400 {object} dto.Response "Invalid input, wrong offset account type, or session is finalized"
// @Failure 401 {object} dto.Response "Unauthorized"
// @Security BearerAuth
// @Router /reconciliations/{id}/adjustments [post]
func (h *reconciliationHandler) createAdjustment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reconciliationID := c.Param("id")

	var req dto.CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAdjustment", slog.String("error", err.Error()))
		respondError(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	userID, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(
		slog.String("reconciliation_id", reconciliationID),
		slog.String("adjustment_type", req.AdjustmentType),
	)

	txn, err := h.adjustmentService.CreateAdjustmentEntry(c.Request.Context(), organizationID, reconciliationID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create adjustment")
		return
	}

	logger.Info("Adjustment created successfully", slog.String("transaction_id", txn.TransactionID), slog.String("number", txn.Number))
	respondSuccess(c, http.StatusCreated, dto.ToTransactionResponse(txn))
}

// finalizeReconciliation godoc
// @Summary Finalize a reconciliation session
// @Description Locks the session permanently once its gap is within the configured epsilon
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} dto.Response{data=dto.FinalizeReconciliationResponse}
// @Failure 401 {object} dto.Response "Unauthorized"
// @Failure 404 {object} dto.Response "Reconciliation not found"
// @Failure 400 {object} dto.Response "Gap not zero, or session already finalized"
// @Security BearerAuth
// @Router /reconciliations/{id}/finalize [post]
func (h *reconciliationHandler) finalizeReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reconciliationID := c.Param("id")

	userID, organizationID, ok := authContext(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("reconciliation_id", reconciliationID))

	recon, err := h.reconciliationService.FinalizeReconciliation(c.Request.Context(), organizationID, reconciliationID, userID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to finalize reconciliation")
		return
	}

	// Re-derive the final gap for the response
	details, err := h.reconciliationService.GetReconciliationDetails(c.Request.Context(), organizationID, reconciliationID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to retrieve finalized reconciliation")
		return
	}

	logger.Info("Reconciliation finalized successfully", slog.Int64("version", recon.Version))
	respondSuccess(c, http.StatusOK, dto.FinalizeReconciliationResponse{
		Reconciliation: details.Reconciliation,
		Gap:            details.Gap,
	})
}
