package handler

import (
	"net/http"

	"clinicdesk/internal/apierror"
	"clinicdesk/internal/dto"
	"clinicdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PatientsHandler struct{ svc service.PatientService }

func NewPatientsHandler(svc service.PatientService) *PatientsHandler {
	return &PatientsHandler{svc: svc}
}

// Register godoc
// @Summary      Register a new patient
// @Description  Creates a patient record and issues the next file number.
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePatientRequest true "Patient details"
// @Success      201  {object} dto.PatientResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/patients [post]
func (h *PatientsHandler) Register(c *gin.Context) {
	var req dto.CreatePatientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *PatientsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.UpdatePatientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PatientsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Patient not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetByFileNumber resolves the front desk's file-number lookup.
func (h *PatientsHandler) GetByFileNumber(c *gin.Context) {
	resp, err := h.svc.FindByFileNumber(c.Request.Context(), c.Param("fileNumber"))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Patient not found"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List patients
// @Description  Paginated patient list filtered by branch, insurer, or name search.
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        branch_id query string false "Branch UUID"
// @Param        insurer   query string false "Insurer name"
// @Param        search    query string false "Name or file number"
// @Param        page      query int    false "Page (default 1)"
// @Param        limit     query int    false "Records per page (default 50)"
// @Success      200 {object} dto.PatientListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/patients [get]
func (h *PatientsHandler) List(c *gin.Context) {
	var filter dto.PatientFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list patients"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PatientsHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
