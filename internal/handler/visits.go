package handler

import (
	"net/http"
	"time"

	"clinicdesk/internal/apierror"
	"clinicdesk/internal/dto"
	"clinicdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VisitsHandler struct{ svc service.VisitService }

func NewVisitsHandler(svc service.VisitService) *VisitsHandler {
	return &VisitsHandler{svc: svc}
}

// CheckIn godoc
// @Summary      Check in a patient
// @Description  Opens a visit: resolves the fee tier from history, prices the consultation, and bills it onto a fresh invoice in one transaction.
// @Tags         visits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CheckInRequest true "Check-in details"
// @Success      201  {object} dto.VisitResponse
// @Failure      400  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/visits [post]
func (h *VisitsHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CheckIn(c.Request.Context(), req)
	if err != nil {
		c.JSON(billingErrorStatus(err), apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *VisitsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Visit not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VisitsHandler) ListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	visits, err := h.svc.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list visits"))
		return
	}
	c.JSON(http.StatusOK, dto.VisitListResponse{Data: visits})
}

// ListByBranch returns a branch's visits for one day (default: today).
func (h *VisitsHandler) ListByBranch(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	date := time.Now()
	if d := c.Query("date"); d != "" {
		date, err = time.Parse("2006-01-02", d)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid date, expected YYYY-MM-DD"))
			return
		}
	}
	visits, err := h.svc.ListByBranchAndDate(c.Request.Context(), branchID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list visits"))
		return
	}
	c.JSON(http.StatusOK, dto.VisitListResponse{Data: visits})
}
