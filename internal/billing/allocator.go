package billing

import "github.com/shopspring/decimal"

// Allocation is the split of one charge between the insurer and the patient.
type Allocation struct {
	Covered decimal.Decimal // portion the insurer absorbs
	Topup   decimal.Decimal // portion the patient pays
}

// Allocate splits charge against the remaining insurance coverage of a visit.
//
//	coverable = max(0, limit − used)
//	covered   = min(charge, coverable)
//	topup     = charge − covered
//
// A nil or zero limit means the visit has no insurance: the whole charge is
// a patient top-up and used is untouched. Once used == limit every further
// call returns covered = 0 — exhaustion is designed clamping, not an error.
//
// The caller must serialize calls per visit (row lock on the visit) and
// apply the returned deltas inside the same transaction: allocation order
// determines which charge gets the remaining coverage.
func Allocate(limit *decimal.Decimal, used, charge decimal.Decimal) (Allocation, error) {
	if charge.IsNegative() {
		return Allocation{}, ErrInvalidAmount
	}
	if limit == nil || !limit.IsPositive() {
		return Allocation{Covered: decimal.Zero, Topup: charge}, nil
	}

	coverable := limit.Sub(used)
	if coverable.IsNegative() {
		coverable = decimal.Zero
	}
	covered := decimal.Min(charge, coverable)
	return Allocation{Covered: covered, Topup: charge.Sub(covered)}, nil
}
