package platformerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorTypeToHTTPStatus(t *testing.T) {
	cases := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeExternal, http.StatusBadGateway},
		{ErrorTypeUnavailable, http.StatusServiceUnavailable},
		{ErrorTypeTooManyRequest, http.StatusTooManyRequests},
		{ErrorTypeInternal, http.StatusInternalServerError},
		{ErrorType("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := ErrorTypeToHTTPStatus(tc.errorType); got != tc.want {
			t.Fatalf("ErrorTypeToHTTPStatus(%s) = %d, want %d", tc.errorType, got, tc.want)
		}
	}
}

func TestNewErrorCarriesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	err := NewError(ctx, LayerDomain, ErrorTypeValidation, "bad input", nil, "abc")

	if err.GetRequestID() != "req-42" {
		t.Fatalf("expected request id req-42, got %q", err.GetRequestID())
	}
	if err.GetUUID() != "abc" {
		t.Fatalf("expected uuid abc, got %q", err.GetUUID())
	}
}

func TestAsErrorKeepsType(t *testing.T) {
	ctx := context.Background()
	inner := NewError(ctx, LayerInfrastructure, ErrorTypeExternal, "upstream down", errors.New("dial tcp"), "u1")
	wrapped := fmt.Errorf("search: %w", inner)

	outer := AsError(ctx, LayerDomain, wrapped, "search failed")
	if outer.Type != ErrorTypeExternal {
		t.Fatalf("expected EXTERNAL, got %s", outer.Type)
	}
	if !IsErrorType(outer, ErrorTypeExternal) {
		t.Fatal("IsErrorType should match wrapped type")
	}

	plain := AsError(ctx, LayerDomain, errors.New("boom"), "failed")
	if plain.Type != ErrorTypeInternal {
		t.Fatalf("expected INTERNAL for plain errors, got %s", plain.Type)
	}

	if AsError(ctx, LayerDomain, nil, "noop") != nil {
		t.Fatal("AsError(nil) should be nil")
	}
}
