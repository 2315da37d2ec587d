package visit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/trials-api/internal/handler"
	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/service/visit"
)

type Handler struct {
	service visit.VisitService
	paging  handler.Paging
}

func NewHandler(service visit.VisitService, paging handler.Paging) *Handler {
	return &Handler{service: service, paging: paging}
}

// RegisterRoutes nests visits under /patients/:id so the wildcard name
// matches the patient routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/patients/:id/visits")
	{
		visits.GET("", h.ListVisits)
		visits.POST("", h.CreateVisit)
		visits.GET("/:visitId", h.GetVisit)
		visits.PUT("/:visitId", h.UpdateVisit)
		visits.DELETE("/:visitId", h.DeleteVisit)
	}
}

func ids(c *gin.Context) (patientID, visitID int64, err error) {
	if patientID, err = handler.ParamID(c, "id"); err != nil {
		return 0, 0, err
	}
	if visitID, err = handler.ParamID(c, "visitId"); err != nil {
		return 0, 0, err
	}
	return patientID, visitID, nil
}

func (h *Handler) ListVisits(c *gin.Context) {
	patientID, err := handler.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	page, err := h.paging.Page(c)
	if err != nil {
		c.Error(err)
		return
	}

	visits, err := h.service.ListForPatient(c.Request.Context(), patientID, page.Offset, page.Limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, visits)
}

func (h *Handler) GetVisit(c *gin.Context) {
	patientID, visitID, err := ids(c)
	if err != nil {
		c.Error(err)
		return
	}

	v, err := h.service.GetForPatient(c.Request.Context(), patientID, visitID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) CreateVisit(c *gin.Context) {
	patientID, err := handler.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req model.CreateVisitRequest
	if err := handler.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	v, err := h.service.CreateForPatient(c.Request.Context(), patientID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) UpdateVisit(c *gin.Context) {
	patientID, visitID, err := ids(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req model.UpdateVisitRequest
	if err := handler.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	v, err := h.service.UpdateForPatient(c.Request.Context(), patientID, visitID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteVisit(c *gin.Context) {
	patientID, visitID, err := ids(c)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.DeleteForPatient(c.Request.Context(), patientID, visitID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
