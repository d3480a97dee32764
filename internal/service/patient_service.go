package service

import (
	"context"
	"fmt"
	"time"

	"clinicdesk/internal/dto"
	"clinicdesk/internal/model"
	"clinicdesk/internal/repository"

	"github.com/google/uuid"
)

type PatientService interface {
	Register(ctx context.Context, req dto.CreatePatientRequest) (*dto.PatientResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	FindByID(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error)
	FindByFileNumber(ctx context.Context, fileNumber string) (*dto.PatientResponse, error)
	List(ctx context.Context, filter dto.PatientFilter) (*dto.PatientListResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type patientService struct {
	repo repository.PatientRepository
}

func NewPatientService(repo repository.PatientRepository) PatientService {
	return &patientService{repo: repo}
}

func (s *patientService) Register(ctx context.Context, req dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, fmt.Errorf("branch_id: %w", err)
	}

	num, err := s.repo.NextFileNumber(ctx)
	if err != nil {
		return nil, err
	}

	p := &model.Patient{
		FileNumber: fmt.Sprintf("PT-%06d", num),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Email:      req.Email,
		Gender:     req.Gender,
		BranchID:   branchID,
		Insurer:    req.Insurer,
		MemberID:   req.MemberID,
		Active:     true,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("date_of_birth: %w", err)
		}
		p.DateOfBirth = &dob
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return patientToResponse(p), nil
}

func (s *patientService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.Email != nil {
		p.Email = req.Email
	}
	if req.Insurer != nil {
		p.Insurer = req.Insurer
	}
	if req.MemberID != nil {
		p.MemberID = req.MemberID
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return patientToResponse(p), nil
}

func (s *patientService) FindByID(ctx context.Context, id uuid.UUID) (*dto.PatientResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}
	return patientToResponse(p), nil
}

func (s *patientService) FindByFileNumber(ctx context.Context, fileNumber string) (*dto.PatientResponse, error) {
	p, err := s.repo.FindByFileNumber(ctx, fileNumber)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}
	return patientToResponse(p), nil
}

func (s *patientService) List(ctx context.Context, filter dto.PatientFilter) (*dto.PatientListResponse, error) {
	patients, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.PatientListResponse{
		Data:  make([]dto.PatientResponse, len(patients)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range patients {
		resp.Data[i] = *patientToResponse(&patients[i])
	}
	return resp, nil
}

func (s *patientService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func patientToResponse(p *model.Patient) *dto.PatientResponse {
	resp := &dto.PatientResponse{
		ID:         p.ID.String(),
		FileNumber: p.FileNumber,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Phone:      p.Phone,
		Email:      p.Email,
		Gender:     p.Gender,
		BranchID:   p.BranchID.String(),
		Insurer:    p.Insurer,
		MemberID:   p.MemberID,
		Active:     p.Active,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.Format("2006-01-02")
		resp.DateOfBirth = &dob
	}
	return resp
}
