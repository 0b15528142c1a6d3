package handler

import (
	"net/http"

	"transit-backend/internal/middleware"
	"transit-backend/internal/service"
	"transit-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CurrencyHandler struct {
	currencyService service.CurrencyService
}

func NewCurrencyHandler(currencyService service.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currencyService: currencyService}
}

func (h *CurrencyHandler) RegisterRoutes(router *gin.RouterGroup) {
	currencies := router.Group("/api/currencies")
	{
		currencies.GET("", middleware.RequirePermission("currencies.read"), h.ListCurrencies)
		currencies.POST("", middleware.RequirePermission("currencies.write"), h.CreateCurrency)
		currencies.PUT("/:id", middleware.RequirePermission("currencies.write"), h.UpdateCurrency)
	}
}

// ListCurrencies handles GET /api/currencies
// @Summary      List currencies
// @Description  Returns all currencies with their conversion rates to the reference currency
// @Tags         currencies
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]service.CurrencyResponse}
// @Router       /api/currencies [get]
func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	currencies, err := h.currencyService.ListCurrencies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch currencies"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, currencies))
}

// CreateCurrency handles POST /api/currencies
// @Summary      Create a currency
// @Tags         currencies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCurrencyRequest  true  "Create Currency Payload"
// @Success      201      {object}  response.Response{data=service.CurrencyResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/currencies [post]
func (h *CurrencyHandler) CreateCurrency(c *gin.Context) {
	var req service.CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	currency, err := h.currencyService.CreateCurrency(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, currency))
}

// UpdateCurrency handles PUT /api/currencies/:id
// @Summary      Update a currency rate
// @Tags         currencies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                         true  "Currency ID"
// @Param        payload  body  service.UpdateCurrencyRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=service.CurrencyResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/currencies/{id} [put]
func (h *CurrencyHandler) UpdateCurrency(c *gin.Context) {
	var req service.UpdateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	currency, err := h.currencyService.UpdateCurrency(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, currency))
}
