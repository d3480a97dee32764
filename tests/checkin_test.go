package tests

import (
	"context"
	"testing"

	"clinicdesk/internal/billing"
	"clinicdesk/internal/dto"
	"clinicdesk/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkInReq(patientID, branchID uuid.UUID, date string) dto.CheckInRequest {
	return dto.CheckInRequest{
		PatientID:        patientID.String(),
		BranchID:         branchID.String(),
		VisitDate:        date,
		ConsultationType: "general",
	}
}

func TestCheckIn(t *testing.T) {
	ctx := context.Background()

	t.Run("first visit is billed at the initial fee", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		patient := f.seedPatient(nil)
		branchID := uuid.New()

		visit, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, branchID, "2026-03-02"))
		require.NoError(t, err)
		assert.Equal(t, string(billing.TierInitial), visit.Tier)
		assert.True(t, visit.ConsultationFee.Equal(dec("100")))

		inv, err := f.billingSvc.GetInvoiceByVisit(ctx, uuid.MustParse(visit.ID))
		require.NoError(t, err)
		assert.Equal(t, string(billing.StatusPending), inv.Status)
		assert.True(t, inv.TotalAmount.Equal(dec("100")))
		assert.True(t, inv.Balance.Equal(dec("100")))
		require.Len(t, inv.Charges, 1)
		assert.Equal(t, 1, inv.Charges[0].Sequence)
		assert.Equal(t, "Consultation (general, initial)", inv.Charges[0].Description)
	})

	t.Run("return within the review window is billed at the review fee", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		patient := f.seedPatient(nil)
		branchID := uuid.New()

		_, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, branchID, "2026-03-02"))
		require.NoError(t, err)

		visit, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, branchID, "2026-03-10"))
		require.NoError(t, err)
		assert.Equal(t, string(billing.TierReview), visit.Tier)
		assert.True(t, visit.ConsultationFee.Equal(dec("60")))
	})

	t.Run("return after the review window is billed at the subsequent fee", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		patient := f.seedPatient(nil)
		branchID := uuid.New()

		_, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, branchID, "2026-03-02"))
		require.NoError(t, err)

		visit, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, branchID, "2026-04-20"))
		require.NoError(t, err)
		assert.Equal(t, string(billing.TierSubsequent), visit.Tier)
		assert.True(t, visit.ConsultationFee.Equal(dec("80")))
	})

	t.Run("history at another branch does not count", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		patient := f.seedPatient(nil)

		_, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, uuid.New(), "2026-03-02"))
		require.NoError(t, err)

		visit, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, uuid.New(), "2026-03-05"))
		require.NoError(t, err)
		assert.Equal(t, string(billing.TierInitial), visit.Tier)
	})

	t.Run("insured check-in splits the consultation fee", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		patient := f.seedPatient(strPtr("NHIS"))
		branchID := uuid.New()

		req := checkInReq(patient.ID, branchID, "2026-03-02")
		req.InsuranceLimit = decPtr("70")

		visit, err := f.visitSvc.CheckIn(ctx, req)
		require.NoError(t, err)
		assert.True(t, visit.InsuranceUsed.Equal(dec("70")))
		assert.True(t, visit.PatientTopup.Equal(dec("30")))

		inv, err := f.billingSvc.GetInvoiceByVisit(ctx, uuid.MustParse(visit.ID))
		require.NoError(t, err)
		require.Len(t, inv.Charges, 1)
		assert.True(t, inv.Charges[0].CoveredAmount.Equal(dec("70")))
		assert.True(t, inv.Charges[0].PatientAmount.Equal(dec("30")))
	})

	t.Run("insurer override prices the check-in", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		patient := f.seedPatient(strPtr("NHIS"))
		f.feeRepo.overrides[overrideKey("NHIS", "general")] = &model.InsuranceOverride{
			ID:               uuid.New(),
			Insurer:          "NHIS",
			ConsultationType: "general",
			InitialFee:       decPtr("55"),
		}

		visit, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, uuid.New(), "2026-03-02"))
		require.NoError(t, err)
		assert.True(t, visit.ConsultationFee.Equal(dec("55")))
	})

	t.Run("check-in fails without fee configuration", func(t *testing.T) {
		f := newBillingFixture()
		patient := f.seedPatient(nil)

		_, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, uuid.New(), "2026-03-02"))
		assert.ErrorIs(t, err, billing.ErrConfigurationMissing)
		assert.Empty(t, f.visitRepo.visits)
	})

	t.Run("unknown patient rejected", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()

		_, err := f.visitSvc.CheckIn(ctx, checkInReq(uuid.New(), uuid.New(), "2026-03-02"))
		assert.Error(t, err)
	})

	t.Run("second invoice for the same visit is rejected", func(t *testing.T) {
		f := newBillingFixture()
		f.seedGlobalFees()
		patient := f.seedPatient(nil)

		visit, err := f.visitSvc.CheckIn(ctx, checkInReq(patient.ID, uuid.New(), "2026-03-02"))
		require.NoError(t, err)

		v, err := f.visitRepo.FindByID(ctx, uuid.MustParse(visit.ID))
		require.NoError(t, err)
		_, err = f.billingSvc.CreateInvoiceTx(ctx, nil, v, dec("0"), dec("0"))
		assert.ErrorIs(t, err, billing.ErrDuplicateIdentifier)
	})
}
