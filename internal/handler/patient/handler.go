package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/trials-api/internal/handler"
	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/service/patient"
)

type Handler struct {
	service patient.PatientService
	paging  handler.Paging
}

func NewHandler(service patient.PatientService, paging handler.Paging) *Handler {
	return &Handler{
		service: service,
		paging:  paging,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.ListPatients)
		patients.POST("", h.CreatePatient)
		patients.GET("/code/:code", h.GetPatientByCode)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
		patients.PATCH("/:id/status", h.UpdatePatientStatus)
		patients.DELETE("/:id", h.DeletePatient)
	}
}

// ListPatients returns summaries ordered by id. "skip" is accepted as an
// alias of "offset".
func (h *Handler) ListPatients(c *gin.Context) {
	page, err := h.paging.Page(c, "skip")
	if err != nil {
		c.Error(err)
		return
	}

	patients, err := h.service.List(c.Request.Context(), page.Offset, page.Limit)
	if err != nil {
		c.Error(err)
		return
	}

	summaries := make([]model.PatientSummary, 0, len(patients))
	for _, p := range patients {
		summaries = append(summaries, p.Summary())
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatientByCode(c *gin.Context) {
	p, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := handler.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req model.UpdatePatientRequest
	if err := handler.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdatePatientStatus takes the status from ?status= when present, else
// from a JSON body.
func (h *Handler) UpdatePatientStatus(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req model.UpdatePatientStatusRequest
	if _, ok := c.GetQuery("status"); ok {
		err = handler.BindQuery(c, &req)
	} else {
		err = handler.BindJSON(c, &req)
	}
	if err != nil {
		c.Error(err)
		return
	}

	p, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
