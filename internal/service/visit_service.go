package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicdesk/internal/billing"
	"clinicdesk/internal/dto"
	"clinicdesk/internal/model"
	"clinicdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VisitService interface {
	// CheckIn opens a visit: classifies the fee tier from the patient's
	// history at the branch, prices the consultation, and bills it onto a
	// fresh invoice. One transaction — a failed invoice means no visit.
	CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.VisitResponse, error)

	FindByID(ctx context.Context, id uuid.UUID) (*dto.VisitResponse, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]dto.VisitResponse, error)
	ListByBranchAndDate(ctx context.Context, branchID uuid.UUID, date time.Time) ([]dto.VisitResponse, error)
}

type visitService struct {
	visitRepo   repository.VisitRepository
	patientRepo repository.PatientRepository
	fees        FeeSettingsService
	billing     BillingService
}

func NewVisitService(
	visitRepo repository.VisitRepository,
	patientRepo repository.PatientRepository,
	fees FeeSettingsService,
	billing BillingService,
) VisitService {
	return &visitService{
		visitRepo:   visitRepo,
		patientRepo: patientRepo,
		fees:        fees,
		billing:     billing,
	}
}

func (s *visitService) CheckIn(ctx context.Context, req dto.CheckInRequest) (*dto.VisitResponse, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("patient_id: %w", err)
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, fmt.Errorf("branch_id: %w", err)
	}
	visitDate, err := time.Parse("2006-01-02", req.VisitDate)
	if err != nil {
		return nil, fmt.Errorf("visit_date: %w", err)
	}

	patient, err := s.patientRepo.FindByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}

	schedule, err := s.fees.Resolve(ctx, branchID, req.ConsultationType, patient.Insurer)
	if err != nil {
		return nil, err
	}

	var priorDate *time.Time
	prior, err := s.visitRepo.LastVisitBefore(ctx, patientID, branchID, visitDate)
	switch {
	case err == nil:
		priorDate = &prior.VisitDate
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first attendance at this branch
	default:
		return nil, err
	}

	tier := billing.ClassifyTier(priorDate, visitDate, schedule.ReviewPeriodDays)
	fee := schedule.Price(tier)

	visit := &model.Visit{
		PatientID:        patientID,
		BranchID:         branchID,
		VisitDate:        visitDate,
		ConsultationType: req.ConsultationType,
		Tier:             string(tier),
		ConsultationFee:  fee,
		Insurer:          patient.Insurer,
		InsuranceUsed:    decimal.Zero,
		PatientTopup:     decimal.Zero,
	}
	if req.ClinicianID != nil {
		cid, err := uuid.Parse(*req.ClinicianID)
		if err != nil {
			return nil, fmt.Errorf("clinician_id: %w", err)
		}
		visit.ClinicianID = &cid
	}
	if req.InsuranceLimit != nil && req.InsuranceLimit.IsPositive() {
		limit := *req.InsuranceLimit
		visit.InsuranceLimit = &limit
	}

	txErr := runTx(ctx, s.visitRepo.DB(), func(tx *gorm.DB) error {
		if err := s.visitRepo.Create(ctx, tx, visit); err != nil {
			return err
		}
		if _, err := s.billing.CreateInvoiceTx(ctx, tx, visit, decimal.Zero, decimal.Zero); err != nil {
			return err
		}
		desc := fmt.Sprintf("Consultation (%s, %s)", req.ConsultationType, tier)
		_, err := s.billing.AddChargeTx(ctx, tx, visit.ID, fee, desc, visitDate)
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.FindByID(ctx, visit.ID)
}

func (s *visitService) FindByID(ctx context.Context, id uuid.UUID) (*dto.VisitResponse, error) {
	v, err := s.visitRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("visit not found")
	}
	return visitToResponse(v), nil
}

func (s *visitService) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]dto.VisitResponse, error) {
	visits, err := s.visitRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return visitsToResponses(visits), nil
}

func (s *visitService) ListByBranchAndDate(ctx context.Context, branchID uuid.UUID, date time.Time) ([]dto.VisitResponse, error) {
	visits, err := s.visitRepo.ListByBranchAndDate(ctx, branchID, date)
	if err != nil {
		return nil, err
	}
	return visitsToResponses(visits), nil
}

func visitToResponse(v *model.Visit) *dto.VisitResponse {
	return &dto.VisitResponse{
		ID:               v.ID.String(),
		PatientID:        v.PatientID.String(),
		BranchID:         v.BranchID.String(),
		VisitDate:        v.VisitDate.Format("2006-01-02"),
		ConsultationType: v.ConsultationType,
		Tier:             v.Tier,
		ConsultationFee:  v.ConsultationFee,
		Insurer:          v.Insurer,
		InsuranceLimit:   v.InsuranceLimit,
		InsuranceUsed:    v.InsuranceUsed,
		PatientTopup:     v.PatientTopup,
		CreatedAt:        v.CreatedAt.Format(time.RFC3339),
	}
}

func visitsToResponses(visits []model.Visit) []dto.VisitResponse {
	resp := make([]dto.VisitResponse, len(visits))
	for i := range visits {
		resp[i] = *visitToResponse(&visits[i])
	}
	return resp
}
