package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/lpt/internal/auth/domain"
	chatdomain "github.com/smallbiznis/lpt/internal/chat/domain"
	completiondomain "github.com/smallbiznis/lpt/internal/completion/domain"
	providerdomain "github.com/smallbiznis/lpt/internal/provider/domain"
	quotadomain "github.com/smallbiznis/lpt/internal/quota/domain"
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
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
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
		Errors: []ValidationError{{Field: field, Code: code, Message: message}},
	}
}

// validationFields maps domain validation errors to the request field they concern.
var validationFields = []struct {
	err     error
	field   string
	message string
}{
	{completiondomain.ErrUnknownModel, "model_id", "unknown model_id"},
	{chatdomain.ErrUnknownModel, "history.model_id", "unknown model_id"},
	{completiondomain.ErrEmptyPrompt, "prompt", "prompt is required"},
	{authdomain.ErrInvalidEmail, "email", "invalid email address"},
	{authdomain.ErrWeakPassword, "password", "password must be at least 8 characters"},
	{authdomain.ErrPseudonymTooLong, "pseudonym", "pseudonym must be at most 100 characters"},
	{chatdomain.ErrTitleTooLong, "title", "title must be at most 255 characters"},
	{chatdomain.ErrInvalidRole, "history.messages.role", "role must be 0 or 1"},
	{chatdomain.ErrInvalidHighlight, "history.messages.highlights", "highlight range is outside the message"},
	{chatdomain.ErrInvalidPageToken, "page_token", "invalid page token"},
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

	for _, v := range validationFields {
		if errors.Is(err, v.err) {
			return http.StatusBadRequest, errorPayload{
				Type:    "validation_error",
				Message: "validation error",
				Errors:  []ValidationError{{Field: v.field, Code: v.err.Error(), Message: v.message}},
			}
		}
	}

	var quotaErr *quotadomain.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: quotaErr.Message(),
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "invalid request",
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, chatdomain.ErrNotOwner):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "Not your chat",
		}
	case errors.Is(err, chatdomain.ErrChatPrivate):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "Chat is private",
		}
	case errors.Is(err, authdomain.ErrEmailTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "email already registered",
		}
	case errors.Is(err, chatdomain.ErrSlugUnavailable):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "could not allocate a unique slug",
		}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, chatdomain.ErrChatNotFound),
		errors.Is(err, authdomain.ErrUserNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, quotadomain.ErrQuotaExceeded),
		errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, providerdomain.ErrProvider):
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_error",
			Message: "model provider request failed",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and a stable code for request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	var providerErr *providerdomain.Error
	if errors.As(err, &providerErr) && providerErr.Kind != nil {
		code = providerErr.Kind.Error()
	}
	var quotaErr *quotadomain.QuotaExceededError
	if errors.As(err, &quotaErr) {
		code = "quota_" + string(quotaErr.Kind)
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}
