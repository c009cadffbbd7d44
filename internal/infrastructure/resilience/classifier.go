package resilience

import (
	"github.com/anshin-navi/discovery/internal/core/domain"
)

// ClassifyDomainError maps the shared error kinds onto retry/breaker
// behavior. Transient upstream failures retry and count against the
// breaker; auth and validation failures fail fast without tripping it;
// a malformed upstream payload is not worth retrying but does count as
// an upstream failure.
func ClassifyDomainError(err error) ErrorClassification {
	switch {
	case domain.IsKind(err, domain.ErrTemporary):
		return ErrorClassification{Retryable: true, RecordFailure: true}
	case domain.IsKind(err, domain.ErrUnauthorized),
		domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrNotFound):
		return ErrorClassification{Retryable: false, RecordFailure: false}
	case domain.IsKind(err, domain.ErrMalformedResponse):
		return ErrorClassification{Retryable: false, RecordFailure: true}
	default:
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}
}
