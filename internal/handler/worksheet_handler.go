package handler

import (
	"errors"
	"net/http"
	"strconv"

	"transit-backend/internal/middleware"
	"transit-backend/internal/repository"
	"transit-backend/internal/service"
	"transit-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorksheetHandler struct {
	worksheetService service.WorksheetService
}

func NewWorksheetHandler(worksheetService service.WorksheetService) *WorksheetHandler {
	return &WorksheetHandler{worksheetService: worksheetService}
}

func (h *WorksheetHandler) RegisterRoutes(router *gin.RouterGroup) {
	worksheets := router.Group("/api/worksheets")
	{
		worksheets.POST("", middleware.RequirePermission("worksheets.write"), h.CreateWorksheet)
		worksheets.GET("/dossier/:dossier_id", middleware.RequirePermission("worksheets.read"), h.ListByDossier)
		worksheets.POST("/:id/open", middleware.RequirePermission("worksheets.read"), h.OpenWorksheet)
		worksheets.POST("/:id/slots/:slot", middleware.RequirePermission("worksheets.write"), h.SwitchSlot)
		worksheets.PUT("/:id/field", middleware.RequirePermission("worksheets.write"), h.SetField)
		worksheets.POST("/:id/distribute", middleware.RequirePermission("worksheets.write"), h.Distribute)
		worksheets.POST("/:id/save", middleware.RequirePermission("worksheets.write"), h.SaveAll)
		worksheets.POST("/:id/close", middleware.RequirePermission("worksheets.write"), h.CloseWorksheet)
	}
}

// CreateWorksheet handles POST /api/worksheets
// @Summary      Create a worksheet
// @Description  Creates a valuation worksheet attached to a dossier with a generated reference
// @Tags         worksheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateWorksheetRequest  true  "Create Worksheet Payload"
// @Success      201      {object}  response.Response{data=service.WorksheetResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/worksheets [post]
func (h *WorksheetHandler) CreateWorksheet(c *gin.Context) {
	var req service.CreateWorksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	worksheet, err := h.worksheetService.CreateWorksheet(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, worksheet))
}

// ListByDossier handles GET /api/worksheets/dossier/:dossier_id
// @Summary      List worksheets for a dossier
// @Tags         worksheets
// @Produce      json
// @Security     BearerAuth
// @Param        dossier_id  path      string  true  "Dossier ID"
// @Success      200         {object}  response.Response{data=[]service.WorksheetResponse}
// @Router       /api/worksheets/dossier/{dossier_id} [get]
func (h *WorksheetHandler) ListByDossier(c *gin.Context) {
	worksheets, err := h.worksheetService.ListByDossier(c.Request.Context(), c.Param("dossier_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, worksheets))
}

// OpenWorksheet handles POST /api/worksheets/:id/open
// @Summary      Open a worksheet editing session
// @Description  Loads the worksheet's articles into an in-memory session and returns its full state
// @Tags         worksheets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worksheet ID"
// @Success      200  {object}  response.Response{data=service.WorksheetStateResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/worksheets/{id}/open [post]
func (h *WorksheetHandler) OpenWorksheet(c *gin.Context) {
	state, warnings, err := h.worksheetService.OpenWorksheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, state, warnings))
}

// SwitchSlot handles POST /api/worksheets/:id/slots/:slot
// @Summary      Switch the active article slot
// @Description  Persists the current slot's article, then activates the requested slot
// @Tags         worksheets
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Worksheet ID"
// @Param        slot  path      int     true  "Slot number (1-11)"
// @Success      200   {object}  response.Response{data=service.WorksheetStateResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/worksheets/{id}/slots/{slot} [post]
func (h *WorksheetHandler) SwitchSlot(c *gin.Context) {
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid slot number"))
		return
	}

	state, warnings, err := h.worksheetService.SwitchSlot(c.Request.Context(), c.Param("id"), slot)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, state, warnings))
}

// SetField handles PUT /api/worksheets/:id/field
// @Summary      Set a field on the active article
// @Description  Updates one field of the active slot's article and returns the recomputed view
// @Tags         worksheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                   true  "Worksheet ID"
// @Param        payload  body  service.SetFieldRequest  true  "Field assignment"
// @Success      200  {object}  response.Response{data=service.ArticleView}
// @Failure      400  {object}  response.Response
// @Router       /api/worksheets/{id}/field [put]
func (h *WorksheetHandler) SetField(c *gin.Context) {
	var req service.SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	view, warnings, err := h.worksheetService.SetField(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, view, warnings))
}

// Distribute handles POST /api/worksheets/:id/distribute
// @Summary      Distribute global costs over the articles
// @Description  Spreads freight and insurance across occupied slots proportionally to FOB value
// @Tags         worksheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                     true  "Worksheet ID"
// @Param        payload  body  service.DistributeRequest  true  "Global amounts"
// @Success      200  {object}  response.Response{data=service.WorksheetStateResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/worksheets/{id}/distribute [post]
func (h *WorksheetHandler) Distribute(c *gin.Context) {
	var req service.DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID := c.GetString("userID")
	state, warnings, err := h.worksheetService.Distribute(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, state, warnings))
}

// SaveAll handles POST /api/worksheets/:id/save
// @Summary      Save all worksheet articles
// @Description  Persists every occupied slot, reporting a conflict if another session saved first
// @Tags         worksheets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worksheet ID"
// @Success      200  {object}  response.Response{data=service.WorksheetStateResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/worksheets/{id}/save [post]
func (h *WorksheetHandler) SaveAll(c *gin.Context) {
	userID := c.GetString("userID")
	state, warnings, err := h.worksheetService.SaveAll(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, repository.ErrStaleArticle) {
			status = http.StatusConflict
		}
		c.JSON(status, response.Error(status, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, state, warnings))
}

// CloseWorksheet handles POST /api/worksheets/:id/close
// @Summary      Close a worksheet editing session
// @Description  Drops the in-memory session without persisting pending edits
// @Tags         worksheets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worksheet ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/worksheets/{id}/close [post]
func (h *WorksheetHandler) CloseWorksheet(c *gin.Context) {
	if err := h.worksheetService.CloseWorksheet(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Worksheet session closed"))
}
