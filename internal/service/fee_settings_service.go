package service

import (
	"context"
	"errors"

	"clinicdesk/internal/billing"
	"clinicdesk/internal/dto"
	"clinicdesk/internal/model"
	"clinicdesk/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeeSettingsService interface {
	// Resolve returns the effective fee schedule for a branch, with any
	// insurance override already applied. Resolution order per tier:
	// per-tier override → flat override_fee → branch row → global row.
	Resolve(ctx context.Context, branchID uuid.UUID, consultationType string, insurer *string) (billing.FeeSchedule, error)

	UpsertGlobal(ctx context.Context, req dto.UpsertFeeSettingsRequest) (*dto.FeeSettingsResponse, error)
	UpsertBranch(ctx context.Context, branchID uuid.UUID, req dto.UpsertFeeSettingsRequest) (*dto.FeeSettingsResponse, error)
	List(ctx context.Context) ([]dto.FeeSettingsResponse, error)

	SaveOverride(ctx context.Context, req dto.UpsertOverrideRequest) (*dto.OverrideResponse, error)
	DeleteOverride(ctx context.Context, id uuid.UUID) error
	ListOverrides(ctx context.Context) ([]dto.OverrideResponse, error)
}

type feeSettingsService struct {
	repo repository.FeeSettingsRepository
}

func NewFeeSettingsService(repo repository.FeeSettingsRepository) FeeSettingsService {
	return &feeSettingsService{repo: repo}
}

func (s *feeSettingsService) Resolve(ctx context.Context, branchID uuid.UUID, consultationType string, insurer *string) (billing.FeeSchedule, error) {
	row, err := s.repo.FindByBranch(ctx, branchID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return billing.FeeSchedule{}, err
		}
		row, err = s.repo.FindGlobal(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// The global row is a required seed invariant.
				return billing.FeeSchedule{}, billing.ErrConfigurationMissing
			}
			return billing.FeeSchedule{}, err
		}
	}

	schedule := billing.FeeSchedule{
		Initial:          row.InitialFee,
		Review:           row.ReviewFee,
		Subsequent:       row.SubsequentFee,
		ReviewPeriodDays: row.ReviewPeriodDays,
	}

	if insurer == nil || *insurer == "" {
		return schedule, nil
	}

	ov, err := s.repo.FindOverride(ctx, *insurer, consultationType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return schedule, nil
		}
		return billing.FeeSchedule{}, err
	}
	return schedule.WithOverride(&billing.Override{
		OverrideFee:   ov.OverrideFee,
		InitialFee:    ov.InitialFee,
		ReviewFee:     ov.ReviewFee,
		SubsequentFee: ov.SubsequentFee,
	}), nil
}

func (s *feeSettingsService) UpsertGlobal(ctx context.Context, req dto.UpsertFeeSettingsRequest) (*dto.FeeSettingsResponse, error) {
	fs := feeSettingsFromRequest(req)
	if err := s.repo.UpsertGlobal(ctx, fs); err != nil {
		return nil, err
	}
	return feeSettingsToResponse(fs), nil
}

func (s *feeSettingsService) UpsertBranch(ctx context.Context, branchID uuid.UUID, req dto.UpsertFeeSettingsRequest) (*dto.FeeSettingsResponse, error) {
	fs := feeSettingsFromRequest(req)
	if err := s.repo.UpsertBranch(ctx, branchID, fs); err != nil {
		return nil, err
	}
	return feeSettingsToResponse(fs), nil
}

func (s *feeSettingsService) List(ctx context.Context) ([]dto.FeeSettingsResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.FeeSettingsResponse, len(rows))
	for i := range rows {
		resp[i] = *feeSettingsToResponse(&rows[i])
	}
	return resp, nil
}

func (s *feeSettingsService) SaveOverride(ctx context.Context, req dto.UpsertOverrideRequest) (*dto.OverrideResponse, error) {
	o, err := s.repo.FindOverride(ctx, req.Insurer, req.ConsultationType)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		o = &model.InsuranceOverride{Insurer: req.Insurer, ConsultationType: req.ConsultationType}
	}
	o.OverrideFee = req.OverrideFee
	o.InitialFee = req.InitialFee
	o.ReviewFee = req.ReviewFee
	o.SubsequentFee = req.SubsequentFee
	if err := s.repo.SaveOverride(ctx, o); err != nil {
		return nil, err
	}
	return overrideToResponse(o), nil
}

func (s *feeSettingsService) DeleteOverride(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteOverride(ctx, id)
}

func (s *feeSettingsService) ListOverrides(ctx context.Context) ([]dto.OverrideResponse, error) {
	rows, err := s.repo.ListOverrides(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.OverrideResponse, len(rows))
	for i := range rows {
		resp[i] = *overrideToResponse(&rows[i])
	}
	return resp, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func feeSettingsFromRequest(req dto.UpsertFeeSettingsRequest) *model.FeeSettings {
	return &model.FeeSettings{
		InitialFee:       req.InitialFee,
		ReviewFee:        req.ReviewFee,
		SubsequentFee:    req.SubsequentFee,
		ReviewPeriodDays: req.ReviewPeriodDays,
	}
}

func feeSettingsToResponse(fs *model.FeeSettings) *dto.FeeSettingsResponse {
	resp := &dto.FeeSettingsResponse{
		ID:               fs.ID.String(),
		InitialFee:       fs.InitialFee,
		ReviewFee:        fs.ReviewFee,
		SubsequentFee:    fs.SubsequentFee,
		ReviewPeriodDays: fs.ReviewPeriodDays,
	}
	if fs.BranchID != nil {
		b := fs.BranchID.String()
		resp.BranchID = &b
	}
	return resp
}

func overrideToResponse(o *model.InsuranceOverride) *dto.OverrideResponse {
	return &dto.OverrideResponse{
		ID:               o.ID.String(),
		Insurer:          o.Insurer,
		ConsultationType: o.ConsultationType,
		OverrideFee:      o.OverrideFee,
		InitialFee:       o.InitialFee,
		ReviewFee:        o.ReviewFee,
		SubsequentFee:    o.SubsequentFee,
	}
}
