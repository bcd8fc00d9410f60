package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicely/internal/auth"
	clientdomain "github.com/smallbiznis/invoicely/internal/client/domain"
	estimatedomain "github.com/smallbiznis/invoicely/internal/estimate/domain"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invoicely/internal/payment/domain"
	productdomain "github.com/smallbiznis/invoicely/internal/product/domain"
	recurringdomain "github.com/smallbiznis/invoicely/internal/recurring/domain"
	"github.com/smallbiznis/invoicely/internal/recurring/schedule"
	reportdomain "github.com/smallbiznis/invoicely/internal/report/domain"
	"github.com/smallbiznis/invoicely/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// classifyErrorForLog reports the envelope type and code an error maps to.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrConflict),
		db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// A missing caller past the auth middleware is treated as unauthenticated.
func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, invoicedomain.ErrInvalidCaller),
		errors.Is(err, paymentdomain.ErrInvalidCaller),
		errors.Is(err, estimatedomain.ErrInvalidCaller),
		errors.Is(err, recurringdomain.ErrInvalidCaller),
		errors.Is(err, reportdomain.ErrInvalidCaller),
		errors.Is(err, clientdomain.ErrInvalidCaller),
		errors.Is(err, productdomain.ErrInvalidCaller):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isInvoiceValidationError(err),
		isPaymentValidationError(err),
		isEstimateValidationError(err),
		isRecurringValidationError(err),
		isReportValidationError(err):
		return true
	default:
		return false
	}
}

func isInvoiceValidationError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidQuantity),
		errors.Is(err, invoicedomain.ErrInvalidPrice),
		errors.Is(err, invoicedomain.ErrInvalidTotal),
		errors.Is(err, invoicedomain.ErrAmountMismatch),
		errors.Is(err, invoicedomain.ErrTotalMismatch),
		errors.Is(err, invoicedomain.ErrTotalBelowPaid),
		errors.Is(err, invoicedomain.ErrInvalidClientID):
		return true
	default:
		return false
	}
}

func isPaymentValidationError(err error) bool {
	switch {
	case errors.Is(err, paymentdomain.ErrInvalidID),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrOverpayment):
		return true
	default:
		return false
	}
}

func isEstimateValidationError(err error) bool {
	switch {
	case errors.Is(err, estimatedomain.ErrInvalidID),
		errors.Is(err, estimatedomain.ErrInvalidTotal),
		errors.Is(err, estimatedomain.ErrInvalidExpiryDate),
		errors.Is(err, estimatedomain.ErrAlreadyConverted),
		errors.Is(err, estimatedomain.ErrInvalidClientID):
		return true
	default:
		return false
	}
}

func isRecurringValidationError(err error) bool {
	switch {
	case errors.Is(err, recurringdomain.ErrInvalidID),
		errors.Is(err, recurringdomain.ErrInvalidStartDate),
		errors.Is(err, recurringdomain.ErrInvalidEndDate),
		errors.Is(err, recurringdomain.ErrInvalidTotal),
		errors.Is(err, recurringdomain.ErrInvalidQuantity),
		errors.Is(err, recurringdomain.ErrInvalidPrice),
		errors.Is(err, recurringdomain.ErrTotalMismatch),
		errors.Is(err, recurringdomain.ErrInvalidClientID),
		errors.Is(err, schedule.ErrInvalidInterval),
		errors.Is(err, schedule.ErrInvalidIntervalCount),
		errors.Is(err, schedule.ErrInvalidStartDate),
		errors.Is(err, schedule.ErrNotMonotonic):
		return true
	default:
		return false
	}
}

func isReportValidationError(err error) bool {
	switch {
	case errors.Is(err, reportdomain.ErrInvalidRange),
		errors.Is(err, reportdomain.ErrInvalidOrder),
		errors.Is(err, reportdomain.ErrUnknownExportKind),
		errors.Is(err, reportdomain.ErrUnknownExportFormat):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, estimatedomain.ErrNotFound),
		errors.Is(err, recurringdomain.ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return rootError(err).Error()
	}
}

// rootError unwraps single-cause chains down to the sentinel.
func rootError(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	switch code {
	case "amount_mismatch":
		return "items"
	case "total_mismatch", "total_below_paid":
		return "total"
	case "overpayment":
		return "amount"
	case "already_converted":
		return "status"
	case "unknown_export_kind":
		return "type"
	case "unknown_export_format":
		return "format"
	case "schedule_not_monotonic":
		return "last_run"
	default:
		return ""
	}
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "amount_mismatch":
		return "item amount does not equal quantity times price"
	case "total_mismatch":
		return "total does not equal the sum of item amounts"
	case "total_below_paid":
		return "total is less than the amount already paid"
	case "overpayment":
		return "payment exceeds the invoice balance"
	case "already_converted":
		return "estimate has already been converted"
	case "unknown_export_kind":
		return "unknown export type"
	case "unknown_export_format":
		return "unknown export format"
	case "schedule_not_monotonic":
		return "run date is not after the previous run"
	default:
		return "invalid value"
	}
}
