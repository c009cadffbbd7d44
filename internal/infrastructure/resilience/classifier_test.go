package resilience

import (
	"errors"
	"testing"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

func TestClassifyDomainError(t *testing.T) {
	cases := []struct {
		name          string
		err           error
		retryable     bool
		recordFailure bool
	}{
		{"temporary", domain.WrapError(domain.ErrTemporary, "fetch", errors.New("503")), true, true},
		{"unauthorized", domain.WrapError(domain.ErrUnauthorized, "fetch", errors.New("401")), false, false},
		{"not found", domain.WrapError(domain.ErrNotFound, "lookup", errors.New("no row")), false, false},
		{"malformed", domain.WrapError(domain.ErrMalformedResponse, "parse", errors.New("bad json")), false, true},
		{"unknown", errors.New("boom"), false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyDomainError(tc.err)
			if got.Retryable != tc.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tc.retryable)
			}
			if got.RecordFailure != tc.recordFailure {
				t.Errorf("RecordFailure = %v, want %v", got.RecordFailure, tc.recordFailure)
			}
		})
	}
}
