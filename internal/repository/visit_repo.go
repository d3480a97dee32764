package repository

import (
	"context"
	"time"

	"clinicdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VisitRepository owns the visit aggregate. Insurance-tracking updates go
// through FindByIDForUpdateTx + UpdateInsuranceTx inside one transaction —
// allocation order decides who gets the remaining coverage, so the row lock
// is a correctness requirement, not an optimization.
type VisitRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Visit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Visit, error)
	// FindByIDForUpdateTx takes a SELECT ... FOR UPDATE lock on the visit row.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Visit, error)
	// LastVisitBefore returns the patient's most recent visit at the branch
	// strictly before the given date. Same-date ties resolve to the latest
	// created_at, never raw ID order. gorm.ErrRecordNotFound when none.
	LastVisitBefore(ctx context.Context, patientID, branchID uuid.UUID, before time.Time) (*model.Visit, error)
	UpdateInsuranceTx(tx *gorm.DB, v *model.Visit) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]model.Visit, error)
	ListByBranchAndDate(ctx context.Context, branchID uuid.UUID, date time.Time) ([]model.Visit, error)
	DB() *gorm.DB
}

type visitRepo struct{ db *gorm.DB }

func NewVisitRepository(db *gorm.DB) VisitRepository { return &visitRepo{db: db} }

func (r *visitRepo) DB() *gorm.DB { return r.db }

func (r *visitRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Visit) error {
	return tx.WithContext(ctx).Create(v).Error
}

func (r *visitRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var v model.Visit
	err := r.db.WithContext(ctx).Preload("Patient").First(&v, id).Error
	return &v, err
}

func (r *visitRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Visit, error) {
	var v model.Visit
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, id).Error
	return &v, err
}

func (r *visitRepo) LastVisitBefore(ctx context.Context, patientID, branchID uuid.UUID, before time.Time) (*model.Visit, error) {
	var v model.Visit
	err := r.db.WithContext(ctx).
		Where("patient_id = ? AND branch_id = ? AND visit_date < ?", patientID, branchID, before).
		Order("visit_date DESC, created_at DESC").
		First(&v).Error
	return &v, err
}

func (r *visitRepo) UpdateInsuranceTx(tx *gorm.DB, v *model.Visit) error {
	return tx.Model(&model.Visit{}).Where("id = ?", v.ID).Updates(map[string]interface{}{
		"insurance_used": v.InsuranceUsed,
		"patient_topup":  v.PatientTopup,
	}).Error
}

func (r *visitRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]model.Visit, error) {
	var visits []model.Visit
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("visit_date DESC, created_at DESC").
		Find(&visits).Error
	return visits, err
}

func (r *visitRepo) ListByBranchAndDate(ctx context.Context, branchID uuid.UUID, date time.Time) ([]model.Visit, error) {
	var visits []model.Visit
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND DATE(visit_date) = DATE(?)", branchID, date).
		Order("created_at ASC").
		Find(&visits).Error
	return visits, err
}
