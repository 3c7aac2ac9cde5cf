package llm

import (
	"fmt"
	"strings"

	"inkwell/core"
)

// classifyStatus maps an HTTP status code to an error kind, or
// KindGeneration when the code alone is not decisive.
func classifyStatus(status int) core.ErrorKind {
	switch status {
	case 401, 403:
		return core.KindAuthentication
	case 404:
		return core.KindModelUnavailable
	case 429:
		return core.KindQuota
	case 503:
		return core.KindServiceUnavailable
	default:
		return core.KindGeneration
	}
}

// classifyMessage inspects a provider error message for known signatures.
// Used when no structured status code is available, and to refine generic
// statuses (some providers return 400 with a quota message, for example).
func classifyMessage(msg string) core.ErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "unauthenticated") || strings.Contains(lower, "permission"):
		return core.KindAuthentication
	case strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "resource exhausted") || strings.Contains(lower, "resource_exhausted"):
		return core.KindQuota
	case strings.Contains(lower, "overloaded") || strings.Contains(lower, "unavailable") ||
		strings.Contains(lower, "try again later"):
		return core.KindServiceUnavailable
	case strings.Contains(lower, "not found") || strings.Contains(lower, "is not supported"):
		return core.KindModelUnavailable
	default:
		return core.KindGeneration
	}
}

// normalizeProviderError wraps a raw provider failure in a
// ContinuationError. The status code decides first; when it is not decisive
// the message signatures refine the classification.
func normalizeProviderError(provider, model string, status int, err error) *core.ContinuationError {
	kind := classifyStatus(status)
	if kind == core.KindGeneration {
		kind = classifyMessage(err.Error())
	}

	ce := &core.ContinuationError{
		Kind: kind,
		Err:  err,
	}

	switch kind {
	case core.KindAuthentication:
		ce.Message = fmt.Sprintf("%s rejected the API key", provider)
		ce.Action = "Verify the API key is correct and has not expired"
	case core.KindQuota:
		ce.Message = fmt.Sprintf("%s quota exceeded or rate limited", provider)
		ce.Action = "Wait a moment and try again"
	case core.KindServiceUnavailable:
		ce.Message = fmt.Sprintf("%s is overloaded", provider)
		ce.Action = "Try again in a few seconds"
	case core.KindModelUnavailable:
		ce.Message = fmt.Sprintf("Model %s is not available", model)
	default:
		ce.Message = fmt.Sprintf("%s generation failed: %v", provider, err)
	}

	return ce
}
