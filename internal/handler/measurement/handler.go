package measurement

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/trials-api/internal/handler"
	"github.com/jwalitptl/trials-api/internal/model"
	"github.com/jwalitptl/trials-api/internal/service/measurement"
)

type Handler struct {
	service measurement.MeasurementService
	paging  handler.Paging
}

func NewHandler(service measurement.MeasurementService, paging handler.Paging) *Handler {
	return &Handler{service: service, paging: paging}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	measurements := r.Group("/patients/:id/measurements")
	{
		measurements.GET("", h.ListMeasurements)
		measurements.POST("", h.CreateMeasurement)
		measurements.GET("/:measurementId", h.GetMeasurement)
		measurements.PUT("/:measurementId", h.UpdateMeasurement)
		measurements.DELETE("/:measurementId", h.DeleteMeasurement)
	}
}

func ids(c *gin.Context) (patientID, measurementID int64, err error) {
	if patientID, err = handler.ParamID(c, "id"); err != nil {
		return 0, 0, err
	}
	if measurementID, err = handler.ParamID(c, "measurementId"); err != nil {
		return 0, 0, err
	}
	return patientID, measurementID, nil
}

func (h *Handler) ListMeasurements(c *gin.Context) {
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

	measurements, err := h.service.ListForPatient(c.Request.Context(), patientID, page.Offset, page.Limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, measurements)
}

func (h *Handler) GetMeasurement(c *gin.Context) {
	patientID, measurementID, err := ids(c)
	if err != nil {
		c.Error(err)
		return
	}

	m, err := h.service.GetForPatient(c.Request.Context(), patientID, measurementID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) CreateMeasurement(c *gin.Context) {
	patientID, err := handler.ParamID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}

	var req model.CreateMeasurementRequest
	if err := handler.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	m, err := h.service.CreateForPatient(c.Request.Context(), patientID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateMeasurement(c *gin.Context) {
	patientID, measurementID, err := ids(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req model.UpdateMeasurementRequest
	if err := handler.BindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	m, err := h.service.UpdateForPatient(c.Request.Context(), patientID, measurementID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMeasurement(c *gin.Context) {
	patientID, measurementID, err := ids(c)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.DeleteForPatient(c.Request.Context(), patientID, measurementID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
