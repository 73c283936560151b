package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/iredox10/kano-market-price/internal/middleware"
	"github.com/iredox10/kano-market-price/internal/services/approval"
	"github.com/iredox10/kano-market-price/utils"
	"github.com/sirupsen/logrus"
)

type ShopApplicationHandler struct {
	Service approval.Service
	Timeout time.Duration
}

func NewShopApplicationHandler(svc approval.Service, timeout time.Duration) *ShopApplicationHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShopApplicationHandler{Service: svc, Timeout: timeout}
}

// ApproveApplication handles POST /api/v1/admin/shop-applications/approve.
func (h *ShopApplicationHandler) ApproveApplication(c *gin.Context) {
	var req approval.ApproveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid JSON payload"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	caller, _ := middleware.CurrentIdentity(c)
	outcome, err := h.Service.Approve(ctx, caller, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse(outcome.Message(), outcome))
}

// RejectApplication handles POST /api/v1/admin/shop-applications/reject.
func (h *ShopApplicationHandler) RejectApplication(c *gin.Context) {
	var req approval.RejectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid JSON payload"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	caller, _ := middleware.CurrentIdentity(c)
	app, err := h.Service.Reject(ctx, caller, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Shop '"+app.ShopName+"' was rejected.", app))
}

// ListApplications handles GET /api/v1/admin/shop-applications?status=pending.
func (h *ShopApplicationHandler) ListApplications(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	caller, _ := middleware.CurrentIdentity(c)
	status := domain.ApplicationStatus(c.DefaultQuery("status", string(domain.ApplicationPending)))
	apps, err := h.Service.List(ctx, caller, status)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("applications fetched successfully", gin.H{
		"applications": apps,
		"count":        len(apps),
	}))
}

// GetApplication handles GET /api/v1/admin/shop-applications/:id.
func (h *ShopApplicationHandler) GetApplication(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	caller, _ := middleware.CurrentIdentity(c)
	app, err := h.Service.Get(ctx, caller, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("application fetched successfully", app))
}

func (h *ShopApplicationHandler) fail(c *gin.Context, err error) {
	status := utils.StatusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"requestId": middleware.RequestID(c),
			"kind":      domain.KindOf(err),
		}).Error("Shop application request failed")
	}
	c.JSON(status, utils.ErrorResponse(err.Error()))
}
