package service

import (
	"context"
	"fmt"

	"clinicdesk/internal/dto"
	"clinicdesk/internal/model"
	"clinicdesk/internal/repository"

	"github.com/google/uuid"
)

type BranchService interface {
	Create(ctx context.Context, req dto.CreateBranchRequest) (*dto.BranchResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateBranchRequest) (*dto.BranchResponse, error)
	FindByID(ctx context.Context, id uuid.UUID) (*dto.BranchResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.BranchResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type branchService struct {
	repo repository.BranchRepository
}

func NewBranchService(repo repository.BranchRepository) BranchService {
	return &branchService{repo: repo}
}

func (s *branchService) Create(ctx context.Context, req dto.CreateBranchRequest) (*dto.BranchResponse, error) {
	b := &model.Branch{
		Code:    req.Code,
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Active:  true,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return branchToResponse(b), nil
}

func (s *branchService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBranchRequest) (*dto.BranchResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("branch not found")
	}
	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Address != nil {
		b.Address = req.Address
	}
	if req.Phone != nil {
		b.Phone = req.Phone
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return branchToResponse(b), nil
}

func (s *branchService) FindByID(ctx context.Context, id uuid.UUID) (*dto.BranchResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("branch not found")
	}
	return branchToResponse(b), nil
}

func (s *branchService) List(ctx context.Context, includeInactive bool) ([]dto.BranchResponse, error) {
	branches, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.BranchResponse, len(branches))
	for i := range branches {
		resp[i] = *branchToResponse(&branches[i])
	}
	return resp, nil
}

func (s *branchService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func branchToResponse(b *model.Branch) *dto.BranchResponse {
	return &dto.BranchResponse{
		ID:      b.ID.String(),
		Code:    b.Code,
		Name:    b.Name,
		Address: b.Address,
		Phone:   b.Phone,
		Active:  b.Active,
	}
}
