package payments

import "strings"

type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeConfirmed
	OutcomeFailed
)

var successStatuses = map[string]struct{}{
	"COMPLETE":   {},
	"SUCCESS":    {},
	"COMPLETED":  {},
	"SUCCESSFUL": {},
	"PAID":       {},
	"CONFIRMED":  {},
}

var failureStatuses = map[string]struct{}{
	"FAILED":    {},
	"CANCELLED": {},
	"CANCELED":  {},
	"REJECTED":  {},
	"DECLINED":  {},
	"FAIL":      {},
}

// Classify maps a gateway status string onto a terminal outcome. Matching is
// case-insensitive; anything outside the two vocabularies is still pending.
func Classify(status string) Outcome {
	normalized := strings.ToUpper(strings.TrimSpace(status))
	if _, ok := successStatuses[normalized]; ok {
		return OutcomeConfirmed
	}
	if _, ok := failureStatuses[normalized]; ok {
		return OutcomeFailed
	}
	return OutcomePending
}
