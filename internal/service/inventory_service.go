package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicdesk/internal/dto"
	"clinicdesk/internal/model"
	"clinicdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type InventoryService interface {
	CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error)
	// Dispense decrements stock and bills the line onto the visit's invoice
	// through the insurance allocator, all in one transaction.
	Dispense(ctx context.Context, visitID uuid.UUID, req dto.DispenseRequest) (*dto.InvoiceResponse, error)
	ListMovements(ctx context.Context, productID uuid.UUID) ([]dto.StockMovementResponse, error)
}

type inventoryService struct {
	productRepo repository.ProductRepository
	billing     BillingService
}

func NewInventoryService(productRepo repository.ProductRepository, billing BillingService) InventoryService {
	return &inventoryService{productRepo: productRepo, billing: billing}
}

func (s *inventoryService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		CostPrice:    req.CostPrice,
		UnitPrice:    req.UnitPrice,
		StockOnHand:  req.StockOnHand,
		ReorderLevel: req.ReorderLevel,
		Active:       true,
	}
	if req.BranchID != nil {
		bid, err := uuid.Parse(*req.BranchID)
		if err != nil {
			return nil, fmt.Errorf("branch_id: %w", err)
		}
		p.BranchID = &bid
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product not found")
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.UnitPrice != nil {
		p.UnitPrice = *req.UnitPrice
	}
	if req.ReorderLevel != nil {
		p.ReorderLevel = *req.ReorderLevel
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product not found")
	}
	return productToResponse(p), nil
}

func (s *inventoryService) ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{
		Data:  make([]dto.ProductResponse, len(products)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range products {
		resp.Data[i] = *productToResponse(&products[i])
	}
	return resp, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.SoftDelete(ctx, id)
}

func (s *inventoryService) AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	txErr := runTx(ctx, s.productRepo.DB(), func(tx *gorm.DB) error {
		p, err := s.productRepo.FindByIDTx(tx, id)
		if err != nil {
			return fmt.Errorf("product not found")
		}
		after := p.StockOnHand + req.Delta
		if after < 0 {
			return ErrInsufficientStock
		}
		if err := s.productRepo.UpdateStockTx(tx, id, req.Delta); err != nil {
			return err
		}
		kind := "adjustment"
		if req.Delta > 0 {
			kind = "restock"
		}
		return s.productRepo.CreateMovementTx(tx, &model.StockMovement{
			ProductID:   id,
			Kind:        kind,
			Quantity:    req.Delta,
			StockBefore: p.StockOnHand,
			StockAfter:  after,
			Reason:      req.Reason,
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.GetProduct(ctx, id)
}

func (s *inventoryService) Dispense(ctx context.Context, visitID uuid.UUID, req dto.DispenseRequest) (*dto.InvoiceResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product_id: %w", err)
	}

	txErr := runTx(ctx, s.productRepo.DB(), func(tx *gorm.DB) error {
		p, err := s.productRepo.FindByIDTx(tx, productID)
		if err != nil {
			return fmt.Errorf("product not found")
		}
		if p.StockOnHand < req.Quantity {
			return ErrInsufficientStock
		}

		amount := p.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
		desc := fmt.Sprintf("%s x%d", p.Name, req.Quantity)
		if _, err := s.billing.AddChargeTx(ctx, tx, visitID, amount, desc, time.Now()); err != nil {
			return err
		}

		if err := s.productRepo.UpdateStockTx(tx, productID, -req.Quantity); err != nil {
			return err
		}
		return s.productRepo.CreateMovementTx(tx, &model.StockMovement{
			ProductID:   productID,
			Kind:        "dispense",
			Quantity:    -req.Quantity,
			StockBefore: p.StockOnHand,
			StockAfter:  p.StockOnHand - req.Quantity,
			Reason:      desc,
			ReferenceID: &visitID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.billing.GetInvoiceByVisit(ctx, visitID)
}

func (s *inventoryService) ListMovements(ctx context.Context, productID uuid.UUID) ([]dto.StockMovementResponse, error) {
	movements, err := s.productRepo.ListMovements(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.StockMovementResponse, len(movements))
	for i, m := range movements {
		resp[i] = dto.StockMovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			Kind:        m.Kind,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		}
		if m.ReferenceID != nil {
			ref := m.ReferenceID.String()
			resp[i].ReferenceID = &ref
		}
	}
	return resp, nil
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:           p.ID.String(),
		SKU:          p.SKU,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		CostPrice:    p.CostPrice,
		UnitPrice:    p.UnitPrice,
		StockOnHand:  p.StockOnHand,
		ReorderLevel: p.ReorderLevel,
		Active:       p.Active,
	}
}
