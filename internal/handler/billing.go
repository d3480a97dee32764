package handler

import (
	"errors"
	"net/http"

	"clinicdesk/internal/apierror"
	"clinicdesk/internal/billing"
	"clinicdesk/internal/dto"
	"clinicdesk/internal/middleware"
	"clinicdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BillingHandler struct{ svc service.BillingService }

func NewBillingHandler(svc service.BillingService) *BillingHandler {
	return &BillingHandler{svc: svc}
}

// billingErrorStatus maps domain sentinels onto HTTP status codes so the
// ledger's refusals read correctly at the API edge.
func billingErrorStatus(err error) int {
	switch {
	case errors.Is(err, billing.ErrInvoiceAlreadySettled),
		errors.Is(err, billing.ErrDuplicateIdentifier):
		return http.StatusConflict
	case errors.Is(err, billing.ErrOverpaymentNotAllowed),
		errors.Is(err, billing.ErrRefundNotAllowed),
		errors.Is(err, billing.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, billing.ErrConfigurationMissing):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// AddCharge godoc
// @Summary      Add a charge to a visit's invoice
// @Description  Splits the amount between insurer and patient, appends the charge, and recomputes the invoice totals atomically.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string               true "Visit UUID"
// @Param        body body dto.AddChargeRequest true "Charge details"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/visits/{id}/charges [post]
func (h *BillingHandler) AddCharge(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.AddChargeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddCharge(c.Request.Context(), visitID, req)
	if err != nil {
		c.JSON(billingErrorStatus(err), apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ApplyPayment godoc
// @Summary      Apply a payment to an invoice
// @Description  Records a payment, issues a receipt number, and transitions invoice status. Overpayment is rejected with the invoice unchanged.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "Invoice UUID"
// @Param        body body dto.ApplyPaymentRequest true "Payment details"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/invoices/{id}/payments [post]
func (h *BillingHandler) ApplyPayment(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.ApplyPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var receivedBy *uuid.UUID
	if claims := middleware.GetClaims(c); claims != nil {
		if uid, err := uuid.Parse(claims.UserID); err == nil {
			receivedBy = &uid
		}
	}

	resp, err := h.svc.ApplyPayment(c.Request.Context(), invoiceID, receivedBy, req)
	if err != nil {
		c.JSON(billingErrorStatus(err), apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refund godoc
// @Summary      Refund an invoice
// @Description  Marks a PAID or PARTIAL invoice REFUNDED, preserving totals and payment history.
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice UUID"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/invoices/{id}/refund [post]
func (h *BillingHandler) Refund(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.Refund(c.Request.Context(), invoiceID)
	if err != nil {
		c.JSON(billingErrorStatus(err), apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) GetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Invoice not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) GetInvoiceByVisit(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.GetInvoiceByVisit(c.Request.Context(), visitID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Invoice not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
