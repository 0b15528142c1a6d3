package handler

import (
	"net/http"

	"transit-backend/internal/middleware"
	"transit-backend/internal/repository"
	"transit-backend/internal/service"
	"transit-backend/pkg/pagination"
	"transit-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DossierHandler struct {
	dossierService service.DossierService
}

func NewDossierHandler(dossierService service.DossierService) *DossierHandler {
	return &DossierHandler{dossierService: dossierService}
}

func (h *DossierHandler) RegisterRoutes(router *gin.RouterGroup) {
	dossiers := router.Group("/api/dossiers")
	{
		dossiers.GET("", middleware.RequirePermission("dossiers.read"), h.ListDossiers)
		dossiers.GET("/:id", middleware.RequirePermission("dossiers.read"), h.GetDossier)
		dossiers.POST("", middleware.RequirePermission("dossiers.write"), h.CreateDossier)
		dossiers.PUT("/:id", middleware.RequirePermission("dossiers.write"), h.UpdateDossier)
		dossiers.GET("/:id/orders", middleware.RequirePermission("dossiers.read"), h.ListOrders)
		dossiers.POST("/:id/orders", middleware.RequirePermission("dossiers.write"), h.AddOrder)
	}

	orders := router.Group("/api/orders")
	{
		orders.PUT("/:id", middleware.RequirePermission("dossiers.write"), h.UpdateOrder)
	}
}

// CreateDossier handles POST /api/dossiers
// @Summary      Create a dossier
// @Description  Opens a new forwarding dossier with a generated dossier number
// @Tags         dossiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDossierRequest  true  "Create Dossier Payload"
// @Success      201      {object}  response.Response{data=service.DossierResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/dossiers [post]
func (h *DossierHandler) CreateDossier(c *gin.Context) {
	var req service.CreateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	dossier, err := h.dossierService.CreateDossier(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, dossier))
}

// ListDossiers handles GET /api/dossiers with filters
// @Summary      List dossiers
// @Tags         dossiers
// @Produce      json
// @Security     BearerAuth
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 10)"
// @Param        status      query     string  false  "Filter by status: OPEN, IN_CUSTOMS, LIQUIDATED, CLOSED"
// @Param        direction   query     string  false  "Filter by direction: IMPORT, EXPORT"
// @Param        dossier_no  query     string  false  "Search by dossier number"
// @Param        client_id   query     string  false  "Filter by client"
// @Success      200         {object}  response.Response
// @Router       /api/dossiers [get]
func (h *DossierHandler) ListDossiers(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.DossierListFilter{
		Status:    c.Query("status"),
		Direction: c.Query("direction"),
		DossierNo: c.Query("dossier_no"),
		Page:      p.Page,
		Limit:     p.Limit,
	}
	if clientID := c.Query("client_id"); clientID != "" {
		parsed, err := uuid.Parse(clientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid client_id"))
			return
		}
		filter.ClientID = &parsed
	}

	dossiers, total, err := h.dossierService.ListDossiers(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch dossiers"))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, dossiers, p.Page, p.Limit, total))
}

// GetDossier handles GET /api/dossiers/:id
// @Summary      Get a dossier by id
// @Tags         dossiers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Dossier ID"
// @Success      200  {object}  response.Response{data=service.DossierResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/dossiers/{id} [get]
func (h *DossierHandler) GetDossier(c *gin.Context) {
	dossier, err := h.dossierService.GetDossier(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, dossier))
}

// UpdateDossier handles PUT /api/dossiers/:id
// @Summary      Update a dossier
// @Description  Updates dossier fields, enforcing the status lifecycle
// @Tags         dossiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                        true  "Dossier ID"
// @Param        payload  body  service.UpdateDossierRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=service.DossierResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/dossiers/{id} [put]
func (h *DossierHandler) UpdateDossier(c *gin.Context) {
	var req service.UpdateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	dossier, err := h.dossierService.UpdateDossier(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, dossier))
}

// AddOrder handles POST /api/dossiers/:id/orders
// @Summary      Add a transit order to a dossier
// @Tags         dossiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                             true  "Dossier ID"
// @Param        payload  body  service.CreateTransitOrderRequest  true  "Create Order Payload"
// @Success      201  {object}  response.Response{data=service.TransitOrderResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/dossiers/{id}/orders [post]
func (h *DossierHandler) AddOrder(c *gin.Context) {
	var req service.CreateTransitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.dossierService.AddOrder(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders handles GET /api/dossiers/:id/orders
// @Summary      List the transit orders of a dossier
// @Tags         dossiers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Dossier ID"
// @Success      200  {object}  response.Response{data=[]service.TransitOrderResponse}
// @Router       /api/dossiers/{id}/orders [get]
func (h *DossierHandler) ListOrders(c *gin.Context) {
	orders, err := h.dossierService.ListOrders(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, orders))
}

// UpdateOrder handles PUT /api/orders/:id
// @Summary      Update a transit order
// @Description  Updates a transit order's status or note, enforcing document flow rules
// @Tags         dossiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                             true  "Order ID"
// @Param        payload  body  service.UpdateTransitOrderRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=service.TransitOrderResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *DossierHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateTransitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.dossierService.UpdateOrder(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
