package billing

import "github.com/shopspring/decimal"

// FeeSchedule is a resolved price triple plus the review window. It is the
// output of fee resolution: branch row if present, else the global row, with
// any insurance override already applied.
type FeeSchedule struct {
	Initial          decimal.Decimal
	Review           decimal.Decimal
	Subsequent       decimal.Decimal
	ReviewPeriodDays int
}

// Price returns the fee for the given tier.
func (s FeeSchedule) Price(t Tier) decimal.Decimal {
	switch t {
	case TierReview:
		return s.Review
	case TierSubsequent:
		return s.Subsequent
	default:
		return s.Initial
	}
}

// Override carries the insurance-specific fee override for one
// (insurer, consultation type) pair. All fields are optional; priority per
// tier is: per-tier fee → flat OverrideFee → the plain schedule price.
type Override struct {
	OverrideFee   *decimal.Decimal
	InitialFee    *decimal.Decimal
	ReviewFee     *decimal.Decimal
	SubsequentFee *decimal.Decimal
}

// WithOverride returns a copy of s with o applied. A nil override returns s
// unchanged. The review period is never overridden by insurers.
func (s FeeSchedule) WithOverride(o *Override) FeeSchedule {
	if o == nil {
		return s
	}
	out := s
	if o.OverrideFee != nil {
		out.Initial = *o.OverrideFee
		out.Review = *o.OverrideFee
		out.Subsequent = *o.OverrideFee
	}
	if o.InitialFee != nil {
		out.Initial = *o.InitialFee
	}
	if o.ReviewFee != nil {
		out.Review = *o.ReviewFee
	}
	if o.SubsequentFee != nil {
		out.Subsequent = *o.SubsequentFee
	}
	return out
}
