package handler

import (
	"net/http"

	"transit-backend/internal/middleware"
	"transit-backend/internal/service"
	"transit-backend/pkg/pagination"
	"transit-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CotationHandler struct {
	cotationService service.CotationService
}

func NewCotationHandler(cotationService service.CotationService) *CotationHandler {
	return &CotationHandler{cotationService: cotationService}
}

func (h *CotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	cotations := router.Group("/api/cotations")
	{
		cotations.GET("", middleware.RequirePermission("cotations.read"), h.ListCotations)
		cotations.POST("", middleware.RequirePermission("cotations.write"), h.CreateCotation)
		cotations.POST("/:id/assign", middleware.RequirePermission("cotations.assign"), h.AssignCotation)
		cotations.POST("/:id/reject", middleware.RequirePermission("cotations.assign"), h.RejectCotation)
	}
}

// CreateCotation handles POST /api/cotations
// @Summary      Request a declarant assignment
// @Description  Opens a cotation request for a dossier that has no declarant yet
// @Tags         cotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateCotationRequest  true  "Create Cotation Payload"
// @Success      201      {object}  response.Response{data=service.CotationResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/cotations [post]
func (h *CotationHandler) CreateCotation(c *gin.Context) {
	var req service.CreateCotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	cotation, err := h.cotationService.CreateCotation(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, cotation))
}

// ListCotations handles GET /api/cotations
// @Summary      List cotation requests
// @Tags         cotations
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 10)"
// @Param        status  query     string  false  "Filter by status: PENDING, ASSIGNED, REJECTED"
// @Success      200     {object}  response.Response
// @Router       /api/cotations [get]
func (h *CotationHandler) ListCotations(c *gin.Context) {
	p := pagination.Parse(c)
	status := c.Query("status")

	cotations, total, err := h.cotationService.ListCotations(c.Request.Context(), status, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch cotations"))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, cotations, p.Page, p.Limit, total))
}

// AssignCotation handles POST /api/cotations/:id/assign
// @Summary      Assign a declarant to a cotation
// @Description  Accepts the request and links the declarant to the dossier
// @Tags         cotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                         true  "Cotation ID"
// @Param        payload  body  service.AssignCotationRequest  true  "Assignment payload"
// @Success      200  {object}  response.Response{data=service.CotationResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/cotations/{id}/assign [post]
func (h *CotationHandler) AssignCotation(c *gin.Context) {
	var req service.AssignCotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	cotation, err := h.cotationService.AssignCotation(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cotation))
}

// RejectCotation handles POST /api/cotations/:id/reject
// @Summary      Reject a cotation request
// @Tags         cotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                         true  "Cotation ID"
// @Param        payload  body  service.RejectCotationRequest  true  "Rejection payload"
// @Success      200  {object}  response.Response{data=service.CotationResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/cotations/{id}/reject [post]
func (h *CotationHandler) RejectCotation(c *gin.Context) {
	var req service.RejectCotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	cotation, err := h.cotationService.RejectCotation(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cotation))
}
