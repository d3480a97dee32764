package tests

import (
	"context"
	"fmt"
	"time"

	"clinicdesk/internal/billing"
	"clinicdesk/internal/dto"
	"clinicdesk/internal/model"
	"clinicdesk/internal/repository"
	"clinicdesk/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository stubs. DB() returns nil, so services run their
// transaction closures directly via runTx's nil-db path. Not safe for
// concurrent use — these tests exercise sequencing logic, not locking.

// ── VisitRepository ──────────────────────────────────────────────────────────

type stubVisitRepo struct {
	visits map[uuid.UUID]*model.Visit
}

var _ repository.VisitRepository = (*stubVisitRepo)(nil)

func newStubVisitRepo() *stubVisitRepo {
	return &stubVisitRepo{visits: make(map[uuid.UUID]*model.Visit)}
}

func (r *stubVisitRepo) DB() *gorm.DB { return nil }

func (r *stubVisitRepo) Create(_ context.Context, _ *gorm.DB, v *model.Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()
	r.visits[v.ID] = v
	return nil
}

func (r *stubVisitRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Visit, error) {
	v, ok := r.visits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVisitRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Visit, error) {
	v, ok := r.visits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVisitRepo) LastVisitBefore(_ context.Context, patientID, branchID uuid.UUID, before time.Time) (*model.Visit, error) {
	var best *model.Visit
	for _, v := range r.visits {
		if v.PatientID != patientID || v.BranchID != branchID || !v.VisitDate.Before(before) {
			continue
		}
		if best == nil ||
			v.VisitDate.After(best.VisitDate) ||
			(v.VisitDate.Equal(best.VisitDate) && v.CreatedAt.After(best.CreatedAt)) {
			best = v
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (r *stubVisitRepo) UpdateInsuranceTx(_ *gorm.DB, v *model.Visit) error {
	stored, ok := r.visits[v.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.InsuranceUsed = v.InsuranceUsed
	stored.PatientTopup = v.PatientTopup
	return nil
}

func (r *stubVisitRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]model.Visit, error) {
	var out []model.Visit
	for _, v := range r.visits {
		if v.PatientID == patientID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *stubVisitRepo) ListByBranchAndDate(_ context.Context, branchID uuid.UUID, date time.Time) ([]model.Visit, error) {
	var out []model.Visit
	for _, v := range r.visits {
		if v.BranchID == branchID && sameDay(v.VisitDate, date) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// ── InvoiceRepository ────────────────────────────────────────────────────────

type stubInvoiceRepo struct {
	invoices   map[uuid.UUID]*model.Invoice
	byVisit    map[uuid.UUID]uuid.UUID
	invoiceSeq int64
	receiptSeq int64
}

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{
		invoices: make(map[uuid.UUID]*model.Invoice),
		byVisit:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *stubInvoiceRepo) DB() *gorm.DB { return nil }

func (r *stubInvoiceRepo) CreateTx(_ *gorm.DB, inv *model.Invoice) error {
	if _, exists := r.byVisit[inv.VisitID]; exists {
		return billing.ErrDuplicateIdentifier
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.CreatedAt = time.Now()
	r.invoices[inv.ID] = inv
	r.byVisit[inv.VisitID] = inv.ID
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (r *stubInvoiceRepo) FindByVisitID(_ context.Context, visitID uuid.UUID) (*model.Invoice, error) {
	id, ok := r.byVisit[visitID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.invoices[id], nil
}

func (r *stubInvoiceRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return inv, nil
}

func (r *stubInvoiceRepo) FindByVisitIDForUpdateTx(_ *gorm.DB, visitID uuid.UUID) (*model.Invoice, error) {
	id, ok := r.byVisit[visitID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.invoices[id], nil
}

func (r *stubInvoiceRepo) MaxChargeSequenceTx(_ *gorm.DB, invoiceID uuid.UUID) (int, error) {
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	max := 0
	for _, c := range inv.Charges {
		if c.Sequence > max {
			max = c.Sequence
		}
	}
	return max, nil
}

func (r *stubInvoiceRepo) NextInvoiceNumber(_ context.Context, _ *gorm.DB) (int64, error) {
	r.invoiceSeq++
	return r.invoiceSeq, nil
}

func (r *stubInvoiceRepo) NextReceiptNumber(_ context.Context, _ *gorm.DB) (int64, error) {
	r.receiptSeq++
	return r.receiptSeq, nil
}

func (r *stubInvoiceRepo) AddChargeTx(_ *gorm.DB, c *model.Charge) error {
	inv, ok := r.invoices[c.InvoiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, existing := range inv.Charges {
		if existing.Sequence == c.Sequence {
			return billing.ErrDuplicateIdentifier
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	inv.Charges = append(inv.Charges, *c)
	return nil
}

func (r *stubInvoiceRepo) AddPaymentTx(_ *gorm.DB, p *model.Payment) error {
	inv, ok := r.invoices[p.InvoiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	inv.Payments = append(inv.Payments, *p)
	return nil
}

func (r *stubInvoiceRepo) UpdateTotalsTx(_ *gorm.DB, inv *model.Invoice) error {
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Subtotal = inv.Subtotal
	stored.TotalAmount = inv.TotalAmount
	stored.AmountPaid = inv.AmountPaid
	stored.Balance = inv.Balance
	stored.Status = inv.Status
	if inv.RefundedAmount != nil {
		stored.RefundedAmount = inv.RefundedAmount
	}
	return nil
}

// ── PatientRepository ────────────────────────────────────────────────────────

type stubPatientRepo struct {
	patients map[uuid.UUID]*model.Patient
	fileSeq  int64
}

var _ repository.PatientRepository = (*stubPatientRepo)(nil)

func newStubPatientRepo() *stubPatientRepo {
	return &stubPatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *stubPatientRepo) Create(_ context.Context, p *model.Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.patients[p.ID] = p
	return nil
}

func (r *stubPatientRepo) NextFileNumber(_ context.Context) (int64, error) {
	r.fileSeq++
	return r.fileSeq, nil
}

func (r *stubPatientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPatientRepo) FindByFileNumber(_ context.Context, fileNumber string) (*model.Patient, error) {
	for _, p := range r.patients {
		if p.FileNumber == fileNumber {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPatientRepo) List(_ context.Context, _ dto.PatientFilter) ([]model.Patient, int64, error) {
	var out []model.Patient
	for _, p := range r.patients {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubPatientRepo) Update(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *stubPatientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.patients[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Active = false
	return nil
}

// ── FeeSettingsRepository ────────────────────────────────────────────────────

type stubFeeSettingsRepo struct {
	global    *model.FeeSettings
	branches  map[uuid.UUID]*model.FeeSettings
	overrides map[string]*model.InsuranceOverride
}

var _ repository.FeeSettingsRepository = (*stubFeeSettingsRepo)(nil)

func newStubFeeSettingsRepo() *stubFeeSettingsRepo {
	return &stubFeeSettingsRepo{
		branches:  make(map[uuid.UUID]*model.FeeSettings),
		overrides: make(map[string]*model.InsuranceOverride),
	}
}

func overrideKey(insurer, consultationType string) string {
	return insurer + "|" + consultationType
}

func (r *stubFeeSettingsRepo) FindGlobal(_ context.Context) (*model.FeeSettings, error) {
	if r.global == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.global, nil
}

func (r *stubFeeSettingsRepo) FindByBranch(_ context.Context, branchID uuid.UUID) (*model.FeeSettings, error) {
	fs, ok := r.branches[branchID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return fs, nil
}

func (r *stubFeeSettingsRepo) UpsertGlobal(_ context.Context, fs *model.FeeSettings) error {
	if fs.ID == uuid.Nil {
		fs.ID = uuid.New()
	}
	fs.BranchID = nil
	r.global = fs
	return nil
}

func (r *stubFeeSettingsRepo) UpsertBranch(_ context.Context, branchID uuid.UUID, fs *model.FeeSettings) error {
	if fs.ID == uuid.Nil {
		fs.ID = uuid.New()
	}
	b := branchID
	fs.BranchID = &b
	r.branches[branchID] = fs
	return nil
}

func (r *stubFeeSettingsRepo) List(_ context.Context) ([]model.FeeSettings, error) {
	var out []model.FeeSettings
	if r.global != nil {
		out = append(out, *r.global)
	}
	for _, fs := range r.branches {
		out = append(out, *fs)
	}
	return out, nil
}

func (r *stubFeeSettingsRepo) FindOverride(_ context.Context, insurer, consultationType string) (*model.InsuranceOverride, error) {
	o, ok := r.overrides[overrideKey(insurer, consultationType)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *stubFeeSettingsRepo) SaveOverride(_ context.Context, o *model.InsuranceOverride) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.overrides[overrideKey(o.Insurer, o.ConsultationType)] = o
	return nil
}

func (r *stubFeeSettingsRepo) DeleteOverride(_ context.Context, id uuid.UUID) error {
	for k, o := range r.overrides {
		if o.ID == id {
			delete(r.overrides, k)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubFeeSettingsRepo) ListOverrides(_ context.Context) ([]model.InsuranceOverride, error) {
	var out []model.InsuranceOverride
	for _, o := range r.overrides {
		out = append(out, *o)
	}
	return out, nil
}

// ── ProductRepository ────────────────────────────────────────────────────────

type stubProductRepo struct {
	products  map[uuid.UUID]*model.Product
	movements []model.StockMovement
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku && p.Active {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Active = false
	return nil
}

func (r *stubProductRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockOnHand += delta
	return nil
}

func (r *stubProductRepo) CreateMovementTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubProductRepo) ListMovements(_ context.Context, productID uuid.UUID) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ── Fixture builders ─────────────────────────────────────────────────────────

type billingFixture struct {
	visitRepo   *stubVisitRepo
	invoiceRepo *stubInvoiceRepo
	patientRepo *stubPatientRepo
	feeRepo     *stubFeeSettingsRepo
	productRepo *stubProductRepo

	billingSvc   service.BillingService
	visitSvc     service.VisitService
	feeSvc       service.FeeSettingsService
	inventorySvc service.InventoryService
}

func newBillingFixture() *billingFixture {
	f := &billingFixture{
		visitRepo:   newStubVisitRepo(),
		invoiceRepo: newStubInvoiceRepo(),
		patientRepo: newStubPatientRepo(),
		feeRepo:     newStubFeeSettingsRepo(),
		productRepo: newStubProductRepo(),
	}
	f.billingSvc = service.NewBillingService(f.invoiceRepo, f.visitRepo, nil)
	f.feeSvc = service.NewFeeSettingsService(f.feeRepo)
	f.visitSvc = service.NewVisitService(f.visitRepo, f.patientRepo, f.feeSvc, f.billingSvc)
	f.inventorySvc = service.NewInventoryService(f.productRepo, f.billingSvc)
	return f
}

// seedGlobalFees installs the standard 100/60/80 schedule with a 14-day
// review window.
func (f *billingFixture) seedGlobalFees() {
	f.feeRepo.global = &model.FeeSettings{
		ID:               uuid.New(),
		InitialFee:       dec("100"),
		ReviewFee:        dec("60"),
		SubsequentFee:    dec("80"),
		ReviewPeriodDays: 14,
	}
}

func (f *billingFixture) seedPatient(insurer *string) *model.Patient {
	p := &model.Patient{
		ID:         uuid.New(),
		FileNumber: fmt.Sprintf("PT-%06d", len(f.patientRepo.patients)+1),
		FirstName:  "Ama",
		LastName:   "Mensah",
		BranchID:   uuid.New(),
		Insurer:    insurer,
		Active:     true,
	}
	f.patientRepo.patients[p.ID] = p
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
