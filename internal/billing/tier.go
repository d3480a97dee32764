package billing

import "time"

// Tier classifies a visit for fee purposes.
type Tier string

const (
	TierInitial    Tier = "initial"    // first ever visit at this branch
	TierReview     Tier = "review"     // return within the review period
	TierSubsequent Tier = "subsequent" // return after the review period
)

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierInitial, TierReview, TierSubsequent:
		return true
	}
	return false
}

// ClassifyTier is a pure function of the prior visit date, the current visit
// date, and the configured review period:
//
//	no prior visit                → initial
//	gap ≤ review_period_days      → review
//	gap > review_period_days      → subsequent
//
// priorVisit must be the patient's most recent visit at the same branch
// strictly before visitDate (same-date ties broken by latest timestamp —
// see VisitRepository.LastVisitBefore). Re-running with unchanged inputs
// always yields the same tier.
func ClassifyTier(priorVisit *time.Time, visitDate time.Time, reviewPeriodDays int) Tier {
	if priorVisit == nil {
		return TierInitial
	}
	gapDays := int(visitDate.Sub(*priorVisit).Hours() / 24)
	if gapDays <= reviewPeriodDays {
		return TierReview
	}
	return TierSubsequent
}
