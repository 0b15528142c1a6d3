package handler

import (
	"net/http"

	"transit-backend/internal/middleware"
	"transit-backend/internal/service"
	"transit-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type LiquidationHandler struct {
	liquidationService service.LiquidationService
}

func NewLiquidationHandler(liquidationService service.LiquidationService) *LiquidationHandler {
	return &LiquidationHandler{liquidationService: liquidationService}
}

func (h *LiquidationHandler) RegisterRoutes(router *gin.RouterGroup) {
	liquidation := router.Group("/api/worksheets/:id/liquidation")
	{
		liquidation.GET("", middleware.RequirePermission("worksheets.read"), h.Status)
		liquidation.POST("", middleware.RequirePermission("worksheets.liquidate"), h.Liquidate)
		liquidation.POST("/toggle", middleware.RequirePermission("worksheets.liquidate"), h.ToggleExclusion)
		liquidation.DELETE("", middleware.RequirePermission("worksheets.liquidate"), h.Reset)
	}
}

// Status handles GET /api/worksheets/:id/liquidation
// @Summary      Get the liquidation state of the active article
// @Tags         liquidation
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worksheet ID"
// @Success      200  {object}  response.Response{data=service.LiquidationView}
// @Failure      400  {object}  response.Response
// @Router       /api/worksheets/{id}/liquidation [get]
func (h *LiquidationHandler) Status(c *gin.Context) {
	view, err := h.liquidationService.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// Liquidate handles POST /api/worksheets/:id/liquidation
// @Summary      Liquidate the active article
// @Description  Computes and persists all tax lines for the active slot's article
// @Tags         liquidation
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worksheet ID"
// @Success      200  {object}  response.Response{data=service.LiquidationView}
// @Failure      400  {object}  response.Response
// @Router       /api/worksheets/{id}/liquidation [post]
func (h *LiquidationHandler) Liquidate(c *gin.Context) {
	userID := c.GetString("userID")
	view, err := h.liquidationService.Liquidate(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// ToggleExclusion handles POST /api/worksheets/:id/liquidation/toggle
// @Summary      Toggle a tax exclusion
// @Description  Includes or excludes one tax code from the active article's liquidation
// @Tags         liquidation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                          true  "Worksheet ID"
// @Param        payload  body  service.ToggleExclusionRequest  true  "Tax code to toggle"
// @Success      200  {object}  response.Response{data=service.LiquidationView}
// @Failure      400  {object}  response.Response
// @Router       /api/worksheets/{id}/liquidation/toggle [post]
func (h *LiquidationHandler) ToggleExclusion(c *gin.Context) {
	var req service.ToggleExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	view, err := h.liquidationService.ToggleExclusion(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// Reset handles DELETE /api/worksheets/:id/liquidation
// @Summary      Reset the active article's liquidation
// @Description  Clears persisted tax lines and returns the schedule to its loaded state
// @Tags         liquidation
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worksheet ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/worksheets/{id}/liquidation [delete]
func (h *LiquidationHandler) Reset(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.liquidationService.Reset(c.Request.Context(), c.Param("id"), userID); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Liquidation reset"))
}
