package fetch

import (
	"context"
	"strings"
)

// Error prefixes a PageFetcher uses for fetches cut short by ctx.
const (
	CanceledErrorPrefix = "canceled: "
	TimeoutErrorPrefix  = "timeout: "
)

// Interrupted reports whether the page failed because its context ended
// rather than because of the target.
func (p Page) Interrupted() bool {
	return strings.HasPrefix(p.Error, CanceledErrorPrefix) || strings.HasPrefix(p.Error, TimeoutErrorPrefix)
}

// RedirectGuard claims a redirect target before it is followed. It returns
// false when the target was already claimed, and the redirect is refused.
type RedirectGuard func(target string) bool

type redirectGuardKey struct{}

// WithRedirectGuard returns a copy of ctx whose fetches consult guard on
// every redirect hop.
func WithRedirectGuard(ctx context.Context, guard RedirectGuard) context.Context {
	return context.WithValue(ctx, redirectGuardKey{}, guard)
}

// RedirectGuardFromContext returns the guard stored in ctx, or nil.
func RedirectGuardFromContext(ctx context.Context) RedirectGuard {
	if ctx == nil {
		return nil
	}
	guard, _ := ctx.Value(redirectGuardKey{}).(RedirectGuard)
	return guard
}

// DuplicateRedirectError is returned by a PageFetcher's redirect policy when a
// hop leads to a URL the guard already claimed.
type DuplicateRedirectError struct {
	URL string
}

func (e *DuplicateRedirectError) Error() string {
	return "duplicate: redirect to already visited " + e.URL
}
