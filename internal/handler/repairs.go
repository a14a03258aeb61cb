package handler

import (
	"net/http"

	"repairpos/internal/dto"
	"repairpos/internal/service"

	"github.com/gin-gonic/gin"
)

type RepairsHandler struct{ svc service.RepairService }

func NewRepairsHandler(svc service.RepairService) *RepairsHandler {
	return &RepairsHandler{svc: svc}
}

// CreateRepair godoc
// @Summary      Open a repair ticket
// @Description  Records the device, its parts and an optional deposit. Stock is not touched until the repair is finished.
// @Tags         repairs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateRepairRequest true "Repair"
// @Success      201  {object} dto.RepairResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/repairs [post]
func (h *RepairsHandler) CreateRepair(c *gin.Context) {
	var req dto.CreateRepairRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateRepair(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetRepair godoc
// @Summary      Get a repair with its client and parts
// @Tags         repairs
// @Produce      json
// @Security     BearerAuth
// @Param        id  path     string true "Repair UUID"
// @Success      200 {object} dto.RepairResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/repairs/{id} [get]
func (h *RepairsHandler) GetRepair(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetRepair(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus godoc
// @Summary      Change repair status
// @Description  Moving into réparée or payée_collectée from any other status takes one unit of every linked part.
// @Tags         repairs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                        true "Repair UUID"
// @Param        body body     dto.UpdateRepairStatusRequest true "New status"
// @Success      200  {object} dto.RepairResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/repairs/{id}/status [put]
func (h *RepairsHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateRepairStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateRepair godoc
// @Summary      Edit a repair
// @Description  Partial update. parts, when sent, replaces the whole part list.
// @Tags         repairs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                  true "Repair UUID"
// @Param        body body     dto.UpdateRepairRequest true "Fields to change"
// @Success      200  {object} dto.RepairResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/repairs/{id} [put]
func (h *RepairsHandler) UpdateRepair(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateRepairRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateRepair(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
