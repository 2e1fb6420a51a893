package checkout

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/designcraft/designcraft-backend/internal/payment"
	"github.com/designcraft/designcraft-backend/pkg/enums"
)

const (
	markerBlockedByClient = "ERR_BLOCKED_BY_CLIENT"
	markerFailedToFetch   = "Failed to fetch"
)

// ClassifyFailure buckets a failed session creation or redirect. Structured
// causes are checked first; free text is the fallback.
func ClassifyFailure(err error, providerDomain string) enums.FailureKind {
	if err == nil {
		return enums.FailureKindGeneric
	}
	if errors.Is(err, payment.ErrProviderUnreachable) {
		return enums.FailureKindBlocked
	}
	if payment.IsProviderRejection(err) {
		return enums.FailureKindGeneric
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return enums.FailureKindBlocked
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return enums.FailureKindBlocked
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return enums.FailureKindBlocked
	}

	text := chainText(err)
	if strings.Contains(text, markerBlockedByClient) || strings.Contains(text, markerFailedToFetch) {
		return enums.FailureKindBlocked
	}
	if providerDomain != "" && strings.Contains(text, providerDomain) {
		return enums.FailureKindBlocked
	}
	return enums.FailureKindGeneric
}

// ClassifyReport handles reports from the global error channel. Only text that
// names the provider domain together with a block or fetch failure counts.
func ClassifyReport(text, providerDomain string) enums.FailureKind {
	if providerDomain == "" || !strings.Contains(text, providerDomain) {
		return enums.FailureKindGeneric
	}
	if strings.Contains(text, markerBlockedByClient) || strings.Contains(text, markerFailedToFetch) {
		return enums.FailureKindBlocked
	}
	return enums.FailureKindGeneric
}

// chainText joins every message in the wrap chain; typed errors do not repeat
// their cause in Error().
func chainText(err error) string {
	var parts []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, ": ")
}
