package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/finlens/bank_recon_app/internal/apperrors"
	"github.com/finlens/bank_recon_app/internal/core/services"
	"github.com/finlens/bank_recon_app/internal/dto"
	"github.com/gin-gonic/gin"
)

// respondSuccess writes a payload in the standard envelope.
func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, dto.SuccessResponse(data))
}

// respondError writes an error message in the standard envelope.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, dto.ErrorResponse(message))
}

// statusForError maps service-layer errors to HTTP status codes. Validation and
// business-rule failures map to 400, missing entities to 404.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, services.ErrUnbalancedEntry),
		errors.Is(err, services.ErrMinEntries),
		errors.Is(err, services.ErrMinAccounts),
		errors.Is(err, services.ErrCurrencyMismatch),
		errors.Is(err, services.ErrDescriptionMissing),
		errors.Is(err, services.ErrAmountMismatch),
		errors.Is(err, services.ErrDirectionMismatch),
		errors.Is(err, services.ErrWrongBankAccount),
		errors.Is(err, services.ErrNotBankAccount),
		errors.Is(err, services.ErrAlreadyVoided),
		errors.Is(err, services.ErrAlreadyReversed),
		errors.Is(err, services.ErrAlreadyMatched),
		errors.Is(err, services.ErrNotMatched),
		errors.Is(err, services.ErrReconciliationFinalized),
		errors.Is(err, services.ErrItemClearedElsewhere),
		errors.Is(err, services.ErrGapNotZero),
		errors.Is(err, services.ErrPaymentAlreadyVoided),
		errors.Is(err, services.ErrPaymentLockedByReconciliation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, services.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code >= http.StatusBadRequest {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// respondServiceError logs and writes a service error. Internal errors hide
// the underlying detail behind fallbackMsg.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, fallbackMsg string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(fallbackMsg, slog.String("error", err.Error()))
		respondError(c, status, fallbackMsg)
		return
	}
	logger.Warn(fallbackMsg, slog.String("error", err.Error()))
	respondError(c, status, err.Error())
}
