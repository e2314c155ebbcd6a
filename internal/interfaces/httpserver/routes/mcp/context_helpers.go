package mcp

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"

	"searxng-mcp/utils/platformerrors"
)

// withCallRequestID makes sure a tool call carries a request id so errors
// raised below it can be correlated in logs.
func withCallRequestID(ctx context.Context) (context.Context, string) {
	if requestID := platformerrors.RequestIDFromContext(ctx); requestID != "" {
		return ctx, requestID
	}
	requestID := uuid.NewString()
	return platformerrors.WithRequestID(ctx, requestID), requestID
}

// preview cuts s to limit characters, appending suffix when it was cut.
func preview(s string, limit int, suffix string) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + suffix
}

func errorMessage(err error) string {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Message
	}
	return err.Error()
}
