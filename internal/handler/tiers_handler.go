package handler

import (
	"net/http"

	"transit-backend/internal/middleware"
	"transit-backend/internal/service"
	"transit-backend/pkg/pagination"
	"transit-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TiersHandler struct {
	tiersService service.TiersService
}

func NewTiersHandler(tiersService service.TiersService) *TiersHandler {
	return &TiersHandler{tiersService: tiersService}
}

func (h *TiersHandler) RegisterRoutes(router *gin.RouterGroup) {
	tiers := router.Group("/api/tiers")
	{
		tiers.GET("", middleware.RequirePermission("tiers.read"), h.ListTiers)
		tiers.GET("/:id", middleware.RequirePermission("tiers.read"), h.GetTiers)
		tiers.POST("", middleware.RequirePermission("tiers.write"), h.CreateTiers)
		tiers.PUT("/:id", middleware.RequirePermission("tiers.write"), h.UpdateTiers)
		tiers.DELETE("/:id", middleware.RequirePermission("tiers.write"), h.DeleteTiers)
	}
}

// CreateTiers handles POST /api/tiers
// @Summary      Create a business partner
// @Description  Creates a client, supplier or forwarder with its addresses
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTiersRequest  true  "Create Tiers Payload"
// @Success      201      {object}  response.Response{data=service.TiersResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tiers [post]
func (h *TiersHandler) CreateTiers(c *gin.Context) {
	var req service.CreateTiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	tiers, err := h.tiersService.CreateTiers(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tiers))
}

// ListTiers handles GET /api/tiers with optional type filter and search
// @Summary      List business partners
// @Tags         tiers
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 10)"
// @Param        type    query     string  false  "Filter by type: CLIENT, SUPPLIER, FORWARDER"
// @Param        search  query     string  false  "Search by name"
// @Success      200     {object}  response.Response
// @Router       /api/tiers [get]
func (h *TiersHandler) ListTiers(c *gin.Context) {
	p := pagination.Parse(c)
	tiersType := c.Query("type")
	search := c.Query("search")

	items, total, err := h.tiersService.ListTiers(c.Request.Context(), tiersType, search, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tiers"))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, items, p.Page, p.Limit, total))
}

// GetTiers handles GET /api/tiers/:id
// @Summary      Get a business partner by id
// @Tags         tiers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tiers ID"
// @Success      200  {object}  response.Response{data=service.TiersResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/tiers/{id} [get]
func (h *TiersHandler) GetTiers(c *gin.Context) {
	tiers, err := h.tiersService.GetTiersByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tiers))
}

// UpdateTiers handles PUT /api/tiers/:id
// @Summary      Update a business partner
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                      true  "Tiers ID"
// @Param        payload  body  service.UpdateTiersRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=service.TiersResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/tiers/{id} [put]
func (h *TiersHandler) UpdateTiers(c *gin.Context) {
	var req service.UpdateTiersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	tiers, err := h.tiersService.UpdateTiers(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tiers))
}

// DeleteTiers handles DELETE /api/tiers/:id
// @Summary      Delete a business partner
// @Tags         tiers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tiers ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/tiers/{id} [delete]
func (h *TiersHandler) DeleteTiers(c *gin.Context) {
	if err := h.tiersService.DeleteTiers(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tiers deleted"))
}
