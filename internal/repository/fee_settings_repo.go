package repository

import (
	"context"

	"clinicdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeeSettingsRepository exposes the two-level fee configuration explicitly:
// FindByBranch for the branch row, FindGlobal for the required seed row.
// The NULL-branch sentinel never leaves this package.
type FeeSettingsRepository interface {
	FindGlobal(ctx context.Context) (*model.FeeSettings, error)
	FindByBranch(ctx context.Context, branchID uuid.UUID) (*model.FeeSettings, error)
	UpsertGlobal(ctx context.Context, fs *model.FeeSettings) error
	UpsertBranch(ctx context.Context, branchID uuid.UUID, fs *model.FeeSettings) error
	List(ctx context.Context) ([]model.FeeSettings, error)

	FindOverride(ctx context.Context, insurer, consultationType string) (*model.InsuranceOverride, error)
	SaveOverride(ctx context.Context, o *model.InsuranceOverride) error
	DeleteOverride(ctx context.Context, id uuid.UUID) error
	ListOverrides(ctx context.Context) ([]model.InsuranceOverride, error)
}

type feeSettingsRepo struct{ db *gorm.DB }

func NewFeeSettingsRepository(db *gorm.DB) FeeSettingsRepository {
	return &feeSettingsRepo{db: db}
}

func (r *feeSettingsRepo) FindGlobal(ctx context.Context) (*model.FeeSettings, error) {
	var fs model.FeeSettings
	err := r.db.WithContext(ctx).Where("branch_id IS NULL").First(&fs).Error
	return &fs, err
}

func (r *feeSettingsRepo) FindByBranch(ctx context.Context, branchID uuid.UUID) (*model.FeeSettings, error) {
	var fs model.FeeSettings
	err := r.db.WithContext(ctx).Where("branch_id = ?", branchID).First(&fs).Error
	return &fs, err
}

func (r *feeSettingsRepo) UpsertGlobal(ctx context.Context, fs *model.FeeSettings) error {
	existing, err := r.FindGlobal(ctx)
	if err == nil {
		fs.ID = existing.ID
		fs.BranchID = nil
		return r.db.WithContext(ctx).Save(fs).Error
	}
	fs.BranchID = nil
	return r.db.WithContext(ctx).Create(fs).Error
}

func (r *feeSettingsRepo) UpsertBranch(ctx context.Context, branchID uuid.UUID, fs *model.FeeSettings) error {
	existing, err := r.FindByBranch(ctx, branchID)
	if err == nil {
		fs.ID = existing.ID
	}
	fs.BranchID = &branchID
	return r.db.WithContext(ctx).Save(fs).Error
}

func (r *feeSettingsRepo) List(ctx context.Context) ([]model.FeeSettings, error) {
	var rows []model.FeeSettings
	err := r.db.WithContext(ctx).Order("branch_id NULLS FIRST").Find(&rows).Error
	return rows, err
}

func (r *feeSettingsRepo) FindOverride(ctx context.Context, insurer, consultationType string) (*model.InsuranceOverride, error) {
	var o model.InsuranceOverride
	err := r.db.WithContext(ctx).
		Where("insurer = ? AND consultation_type = ?", insurer, consultationType).
		First(&o).Error
	return &o, err
}

func (r *feeSettingsRepo) SaveOverride(ctx context.Context, o *model.InsuranceOverride) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *feeSettingsRepo) DeleteOverride(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.InsuranceOverride{}, id).Error
}

func (r *feeSettingsRepo) ListOverrides(ctx context.Context) ([]model.InsuranceOverride, error) {
	var rows []model.InsuranceOverride
	err := r.db.WithContext(ctx).Order("insurer ASC, consultation_type ASC").Find(&rows).Error
	return rows, err
}
