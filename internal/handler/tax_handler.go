package handler

import (
	"net/http"

	"transit-backend/internal/middleware"
	"transit-backend/internal/service"
	"transit-backend/pkg/pagination"
	"transit-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	taxService service.TaxService
}

func NewTaxHandler(taxService service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	taxes := router.Group("/api/taxes")
	{
		taxes.GET("", middleware.RequirePermission("tariffs.read"), h.ListTaxes)
		taxes.GET("/schedule/:nts_code", middleware.RequirePermission("tariffs.read"), h.GetSchedule)
		taxes.POST("", middleware.RequirePermission("tariffs.write"), h.CreateTax)
		taxes.PUT("/:id", middleware.RequirePermission("tariffs.write"), h.UpdateTax)
		taxes.DELETE("/:id", middleware.RequirePermission("tariffs.write"), h.DeleteTax)
	}
}

// ListTaxes handles GET /api/taxes
// @Summary      List tax definitions
// @Tags         taxes
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 10)"
// @Success      200    {object}  response.Response
// @Router       /api/taxes [get]
func (h *TaxHandler) ListTaxes(c *gin.Context) {
	p := pagination.Parse(c)

	taxes, total, err := h.taxService.ListTaxes(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tax definitions"))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, taxes, p.Page, p.Limit, total))
}

// GetSchedule handles GET /api/taxes/schedule/:nts_code
// @Summary      Get the tax schedule for an NTS code
// @Description  Returns the ordered list of taxes applicable to a tariff position
// @Tags         taxes
// @Produce      json
// @Security     BearerAuth
// @Param        nts_code  path      string  true  "NTS code"
// @Success      200       {object}  response.Response{data=[]service.TaxDefinitionResponse}
// @Router       /api/taxes/schedule/{nts_code} [get]
func (h *TaxHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.taxService.GetSchedule(c.Request.Context(), c.Param("nts_code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, schedule))
}

// CreateTax handles POST /api/taxes
// @Summary      Create a tax definition
// @Tags         taxes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTaxDefinitionRequest  true  "Create Tax Payload"
// @Success      201      {object}  response.Response{data=service.TaxDefinitionResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/taxes [post]
func (h *TaxHandler) CreateTax(c *gin.Context) {
	var req service.CreateTaxDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tax, err := h.taxService.CreateTax(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tax))
}

// UpdateTax handles PUT /api/taxes/:id
// @Summary      Update a tax definition
// @Tags         taxes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                              true  "Tax ID"
// @Param        payload  body  service.UpdateTaxDefinitionRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=service.TaxDefinitionResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/taxes/{id} [put]
func (h *TaxHandler) UpdateTax(c *gin.Context) {
	var req service.UpdateTaxDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tax, err := h.taxService.UpdateTax(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tax))
}

// DeleteTax handles DELETE /api/taxes/:id
// @Summary      Delete a tax definition
// @Tags         taxes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tax ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/taxes/{id} [delete]
func (h *TaxHandler) DeleteTax(c *gin.Context) {
	if err := h.taxService.DeleteTax(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tax definition deleted"))
}
