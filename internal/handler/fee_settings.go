package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"clinicdesk/internal/apierror"
	"clinicdesk/internal/dto"
	"clinicdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const feeQuoteCacheTTL = 15 * time.Minute

type FeeSettingsHandler struct {
	svc service.FeeSettingsService
	rdb *redis.Client
}

func NewFeeSettingsHandler(svc service.FeeSettingsService, rdb *redis.Client) *FeeSettingsHandler {
	return &FeeSettingsHandler{svc: svc, rdb: rdb}
}

func (h *FeeSettingsHandler) UpsertGlobal(c *gin.Context) {
	var req dto.UpsertFeeSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpsertGlobal(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FeeSettingsHandler) UpsertBranch(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.UpsertFeeSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpsertBranch(c.Request.Context(), branchID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FeeSettingsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list fee settings"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FeeSettingsHandler) SaveOverride(c *gin.Context) {
	var req dto.UpsertOverrideRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SaveOverride(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FeeSettingsHandler) DeleteOverride(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	if err := h.svc.DeleteOverride(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FeeSettingsHandler) ListOverrides(c *gin.Context) {
	resp, err := h.svc.ListOverrides(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list overrides"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Quote godoc
// @Summary      Quote effective consultation fees
// @Description  Resolves the fee schedule a front desk would charge for a branch plus optional insurer and consultation type. Read-only; served from cache when warm. Check-in always resolves from the database, so a cached quote can never bill a stale fee.
// @Tags         fees
// @Produce      json
// @Security     BearerAuth
// @Param        branch_id         query string true  "Branch UUID"
// @Param        consultation_type query string true  "Consultation type"
// @Param        insurer           query string false "Insurer name"
// @Success      200 {object} dto.ResolvedFeesResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/fees/quote [get]
func (h *FeeSettingsHandler) Quote(c *gin.Context) {
	branchID, err := uuid.Parse(c.Query("branch_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid branch_id"))
		return
	}
	consultationType := c.Query("consultation_type")
	if consultationType == "" {
		c.JSON(http.StatusBadRequest, apierror.New("consultation_type is required"))
		return
	}
	var insurer *string
	if v := c.Query("insurer"); v != "" {
		insurer = &v
	}

	ctx := c.Request.Context()
	cacheKey := "feequote:" + branchID.String() + ":" + consultationType
	if insurer != nil {
		cacheKey += ":" + *insurer
	}

	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.ResolvedFeesResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	schedule, err := h.svc.Resolve(ctx, branchID, consultationType, insurer)
	if err != nil {
		c.JSON(billingErrorStatus(err), apierror.New(err.Error()))
		return
	}

	resp := dto.ResolvedFeesResponse{
		Initial:          schedule.Initial,
		Review:           schedule.Review,
		Subsequent:       schedule.Subsequent,
		ReviewPeriodDays: schedule.ReviewPeriodDays,
	}

	// Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, feeQuoteCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
