package repository

import (
	"context"

	"clinicdesk/internal/dto"
	"clinicdesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(ctx context.Context, p *model.Patient) error
	// NextFileNumber draws from the patients_file_seq Postgres sequence.
	NextFileNumber(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	FindByFileNumber(ctx context.Context, fileNumber string) (*model.Patient, error)
	List(ctx context.Context, filter dto.PatientFilter) ([]model.Patient, int64, error)
	Update(ctx context.Context, p *model.Patient) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type patientRepo struct{ db *gorm.DB }

func NewPatientRepository(db *gorm.DB) PatientRepository { return &patientRepo{db: db} }

func (r *patientRepo) Create(ctx context.Context, p *model.Patient) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *patientRepo) NextFileNumber(ctx context.Context) (int64, error) {
	var num int64
	err := r.db.WithContext(ctx).Raw("SELECT nextval('patients_file_seq')").Scan(&num).Error
	return num, err
}

func (r *patientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	err := r.db.WithContext(ctx).Preload("Branch").First(&p, id).Error
	return &p, err
}

func (r *patientRepo) FindByFileNumber(ctx context.Context, fileNumber string) (*model.Patient, error) {
	var p model.Patient
	err := r.db.WithContext(ctx).Where("file_number = ?", fileNumber).First(&p).Error
	return &p, err
}

func (r *patientRepo) List(ctx context.Context, filter dto.PatientFilter) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Patient{}).Where("active = true")

	if filter.BranchID != "" {
		q = q.Where("branch_id = ?", filter.BranchID)
	}
	if filter.Insurer != "" {
		q = q.Where("insurer = ?", filter.Insurer)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR file_number ILIKE ?", like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("last_name ASC, first_name ASC").Limit(filter.Limit).Offset(offset).Find(&patients).Error
	return patients, total, err
}

func (r *patientRepo) Update(ctx context.Context, p *model.Patient) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *patientRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Patient{}).Where("id = ?", id).Update("active", false).Error
}
