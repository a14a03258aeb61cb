package handler

import (
	"net/http"

	"repairpos/internal/dto"
	"repairpos/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ ledger service.InventoryLedger }

func NewInventoryHandler(ledger service.InventoryLedger) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// LowStock godoc
// @Summary      Products at or below their alert level
// @Description  Includes products whose stock went negative.
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.LowStockResponse
// @Router       /v1/inventory/alerts [get]
func (h *InventoryHandler) LowStock(c *gin.Context) {
	resp, err := h.ledger.LowStock(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMovements godoc
// @Summary      Stock movement journal
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        product_id query    string false "Product UUID"
// @Param        kind       query    string false "sale | repair_consumption | repair_settlement"
// @Param        page       query    int    false "Page"
// @Param        limit      query    int    false "Page size"
// @Success      200        {object} dto.MovementListResponse
// @Router       /v1/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var filter dto.MovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.ledger.ListMovements(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
