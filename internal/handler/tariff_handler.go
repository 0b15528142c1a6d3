package handler

import (
	"net/http"

	"transit-backend/internal/middleware"
	"transit-backend/internal/service"
	"transit-backend/pkg/pagination"
	"transit-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TariffHandler struct {
	tariffService service.TariffService
}

func NewTariffHandler(tariffService service.TariffService) *TariffHandler {
	return &TariffHandler{tariffService: tariffService}
}

func (h *TariffHandler) RegisterRoutes(router *gin.RouterGroup) {
	tariffs := router.Group("/api/tariffs")
	{
		tariffs.GET("", middleware.RequirePermission("tariffs.read"), h.SearchProducts)
		tariffs.GET("/lookup/:nts_code", middleware.RequirePermission("tariffs.read"), h.LookupByNTSCode)
		tariffs.POST("", middleware.RequirePermission("tariffs.write"), h.CreateProduct)
		tariffs.PUT("/:id", middleware.RequirePermission("tariffs.write"), h.UpdateProduct)
		tariffs.DELETE("/:id", middleware.RequirePermission("tariffs.write"), h.DeleteProduct)
	}
}

// SearchProducts handles GET /api/tariffs
// @Summary      Search tariff products
// @Description  Searches products by NTS code or description, paginated
// @Tags         tariffs
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search by NTS code or description"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 10)"
// @Success      200     {object}  response.Response
// @Router       /api/tariffs [get]
func (h *TariffHandler) SearchProducts(c *gin.Context) {
	p := pagination.Parse(c)
	search := c.Query("search")

	products, total, err := h.tariffService.SearchProducts(c.Request.Context(), search, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch tariff products"))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, products, p.Page, p.Limit, total))
}

// LookupByNTSCode handles GET /api/tariffs/lookup/:nts_code
// @Summary      Look up a product by NTS code
// @Description  Resolves an exact NTS code to its product description and tax schedule reference
// @Tags         tariffs
// @Produce      json
// @Security     BearerAuth
// @Param        nts_code  path      string  true  "NTS code"
// @Success      200       {object}  response.Response{data=service.TariffProductResponse}
// @Failure      404       {object}  response.Response
// @Router       /api/tariffs/lookup/{nts_code} [get]
func (h *TariffHandler) LookupByNTSCode(c *gin.Context) {
	product, err := h.tariffService.LookupByNTSCode(c.Request.Context(), c.Param("nts_code"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct handles POST /api/tariffs
// @Summary      Create a tariff product
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTariffProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=service.TariffProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/tariffs [post]
func (h *TariffHandler) CreateProduct(c *gin.Context) {
	var req service.CreateTariffProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.tariffService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct handles PUT /api/tariffs/:id
// @Summary      Update a tariff product
// @Tags         tariffs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                              true  "Product ID"
// @Param        payload  body  service.UpdateTariffProductRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=service.TariffProductResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/tariffs/{id} [put]
func (h *TariffHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateTariffProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.tariffService.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct handles DELETE /api/tariffs/:id
// @Summary      Delete a tariff product
// @Tags         tariffs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/tariffs/{id} [delete]
func (h *TariffHandler) DeleteProduct(c *gin.Context) {
	if err := h.tariffService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Tariff product deleted"))
}
