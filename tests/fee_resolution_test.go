package tests

import (
	"context"
	"testing"

	"clinicdesk/internal/billing"
	"clinicdesk/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFees(t *testing.T) {
	ctx := context.Background()

	t.Run("missing global row is a configuration error", func(t *testing.T) {
		f := newBillingFixture()
		_, err := f.feeSvc.Resolve(ctx, uuid.New(), "general", nil)
		assert.ErrorIs(t, err, billing.ErrConfigurationMissing)
	})

	t.Run("global row resolves when branch has none", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		schedule, err := f.feeSvc.Resolve(ctx, uuid.New(), "general", nil)
		require.NoError(t, err)
		assert.True(t, schedule.Initial.Equal(dec("100")))
		assert.True(t, schedule.Review.Equal(dec("60")))
		assert.True(t, schedule.Subsequent.Equal(dec("80")))
		assert.Equal(t, 14, schedule.ReviewPeriodDays)
	})

	t.Run("branch row wins over global", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		branchID := uuid.New()
		f.feeRepo.branches[branchID] = &model.FeeSettings{
			ID:               uuid.New(),
			BranchID:         &branchID,
			InitialFee:       dec("120"),
			ReviewFee:        dec("70"),
			SubsequentFee:    dec("90"),
			ReviewPeriodDays: 7,
		}

		schedule, err := f.feeSvc.Resolve(ctx, branchID, "general", nil)
		require.NoError(t, err)
		assert.True(t, schedule.Initial.Equal(dec("120")))
		assert.Equal(t, 7, schedule.ReviewPeriodDays)

		// Other branches still fall through to the global row.
		other, err := f.feeSvc.Resolve(ctx, uuid.New(), "general", nil)
		require.NoError(t, err)
		assert.True(t, other.Initial.Equal(dec("100")))
	})

	t.Run("insurer override applies on top of the schedule", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		f.feeRepo.overrides[overrideKey("NHIS", "general")] = &model.InsuranceOverride{
			ID:               uuid.New(),
			Insurer:          "NHIS",
			ConsultationType: "general",
			OverrideFee:      decPtr("50"),
			ReviewFee:        decPtr("25"),
		}

		schedule, err := f.feeSvc.Resolve(ctx, uuid.New(), "general", strPtr("NHIS"))
		require.NoError(t, err)
		assert.True(t, schedule.Initial.Equal(dec("50")))
		assert.True(t, schedule.Review.Equal(dec("25")))
		assert.True(t, schedule.Subsequent.Equal(dec("50")))
		// The review window is never insurer-specific.
		assert.Equal(t, 14, schedule.ReviewPeriodDays)
	})

	t.Run("override for another consultation type is ignored", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		f.feeRepo.overrides[overrideKey("NHIS", "dental")] = &model.InsuranceOverride{
			ID:               uuid.New(),
			Insurer:          "NHIS",
			ConsultationType: "dental",
			OverrideFee:      decPtr("50"),
		}

		schedule, err := f.feeSvc.Resolve(ctx, uuid.New(), "general", strPtr("NHIS"))
		require.NoError(t, err)
		assert.True(t, schedule.Initial.Equal(dec("100")))
	})

	t.Run("no insurer skips override lookup", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		f.feeRepo.overrides[overrideKey("NHIS", "general")] = &model.InsuranceOverride{
			ID:               uuid.New(),
			Insurer:          "NHIS",
			ConsultationType: "general",
			OverrideFee:      decPtr("50"),
		}

		schedule, err := f.feeSvc.Resolve(ctx, uuid.New(), "general", nil)
		require.NoError(t, err)
		assert.True(t, schedule.Initial.Equal(dec("100")))
	})
}
