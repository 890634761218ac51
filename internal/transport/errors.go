package transport

import (
	"errors"
	"net/http"

	"shop-catalog/internal/middleware"
	"shop-catalog/internal/repository"
	"shop-catalog/internal/service"

	"go.uber.org/zap"
)

// clientErrors are raised by the catalog core for bad input or missing
// entities. They all surface as 400 with their own code.
var clientErrors = []struct {
	err  error
	code string
}{
	{service.ErrOpeningHoursConflict, "OPENING_HOURS_CONFLICT"},
	{repository.ErrShopNotFound, "SHOP_NOT_FOUND"},
	{repository.ErrProductNotFound, "PRODUCT_NOT_FOUND"},
	{repository.ErrProductInvalidLink, "INVALID_PRODUCT_LINK"},
	{repository.ErrCategoryNotFound, "CATEGORY_NOT_FOUND"},
	{repository.ErrCategoryAlreadyExists, "CATEGORY_ALREADY_EXISTS"},
}

// clientErrorCode returns the code of a known client error
func clientErrorCode(err error) (string, bool) {
	for _, known := range clientErrors {
		if errors.Is(err, known.err) {
			return known.code, true
		}
	}
	return "", false
}

// respondServiceError maps a service error to a response. Anything that is
// not a known client error is logged and hidden behind a 500.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error, failure string) {
	if code, ok := clientErrorCode(err); ok {
		logger.Debug("Request rejected", zap.String("code", code), zap.Error(err))
		middleware.RespondWithErrorCode(w, http.StatusBadRequest, code, err.Error())
		return
	}

	logger.Error("Request failed", zap.String("failure", failure), zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, failure)
}

// decodeRequest decodes and validates a JSON body, writing the 400 itself
// when that fails
func decodeRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
