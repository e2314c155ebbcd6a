package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"searxng-mcp/utils/platformerrors"
)

type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Error         string `json:"error"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError renders err as an ErrorResponse. The status code comes from the
// PlatformError type; anything else is a 500.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		HandleErrorWithStatus(reqCtx, platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType()), err, message)
		return
	}
	HandleErrorWithStatus(reqCtx, http.StatusInternalServerError, err, message)
}

// HandleErrorWithStatus is HandleError with an explicit status code.
func HandleErrorWithStatus(reqCtx *gin.Context, statusCode int, err error, message string) {
	errResp := ErrorResponse{
		Error:         message,
		ErrorInstance: err,
		RequestID:     platformerrors.RequestIDFromContext(reqCtx.Request.Context()),
	}

	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		errResp.Code = domainErr.GetUUID()
		if domainErr.GetRequestID() != "" {
			errResp.RequestID = domainErr.GetRequestID()
		}
	}

	if err != nil {
		reqCtx.Error(err)
	}
	reqCtx.AbortWithStatusJSON(statusCode, errResp)
}

// HandleNewError creates a new typed error at the route layer and handles it.
// The uuid identifies the call site in logs.
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	err := platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerRoute, errorType, message, nil, uuid)
	HandleErrorWithStatus(reqCtx, platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType()), err, message)
}

// MessageOf returns the client-facing message carried by err.
func MessageOf(err error) string {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "internal server error"
}
