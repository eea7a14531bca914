package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"visionallende/internal/apierror"
	"visionallende/internal/dto"
	"visionallende/internal/infra"
	"visionallende/internal/service"
	"visionallende/internal/worker"

	"github.com/gin-gonic/gin"
)

// ReporteQueue is the job dispatcher used by Enviar.
type ReporteQueue interface {
	EncolarReporte(ctx context.Context, req dto.EnviarReporteRequest) error
}

type ReportesHandler struct {
	svc     service.ReporteService
	cola    ReporteQueue
	destino string
}

func NewReportesHandler(svc service.ReporteService, cola ReporteQueue, destino string) *ReportesHandler {
	return &ReportesHandler{svc: svc, cola: cola, destino: destino}
}

// Extraer godoc
// @Summary      Extraer reporte
// @Description  Requiere periodo_id o el rango desde/hasta. metodo filtra por método de pago.
// @Tags         reportes
// @Produce      json
// @Security     CookieAuth
// @Param        periodo_id query string false "UUID del período"
// @Param        desde      query string false "YYYY-MM-DD"
// @Param        hasta      query string false "YYYY-MM-DD"
// @Param        metodo     query string false "efectivo | tarjeta | transferencia"
// @Success      200  {object} dto.ReporteData
// @Failure      400  {object} apierror.APIError
// @Router       /v1/reportes [get]
func (h *ReportesHandler) Extraer(c *gin.Context) {
	var filtro dto.ReporteFilter
	if !bindQuery(c, &filtro) {
		return
	}
	resp, err := h.svc.Extraer(c.Request.Context(), filtro)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Exportar streams the report as an XLSX attachment.
func (h *ReportesHandler) Exportar(c *gin.Context) {
	var filtro dto.ReporteFilter
	if !bindQuery(c, &filtro) {
		return
	}
	data, err := h.svc.Extraer(c.Request.Context(), filtro)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := infra.ExportarReporteXLSX(&buf, data, filtro.Tipo, filtro.Completo); err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", worker.NombreArchivoReporte(data)))
	c.Data(http.StatusOK, infra.XLSXContentType, buf.Bytes())
}

// Enviar validates the filter synchronously and queues the mail job.
func (h *ReportesHandler) Enviar(c *gin.Context) {
	var req dto.EnviarReporteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.Destinatario == "" && h.destino == "" {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"destinatario": "required"}))
		return
	}
	// Fail fast on a bad filter instead of dead-lettering the job later.
	if _, err := h.svc.Extraer(c.Request.Context(), req.ReporteFilter); err != nil {
		respondError(c, err)
		return
	}
	if err := h.cola.EncolarReporte(c.Request.Context(), req); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"encolado": true})
}

// ReportesFallidosLister reads the dead-letter list of the report queue.
type ReportesFallidosLister interface {
	Listar(ctx context.Context, queue string, n int64) ([]worker.DLQEntry, error)
}

// ReportesFallidos lists the most recent report mail jobs that ran out of
// retries. limite defaults to 20 and is capped at 100.
func ReportesFallidos(dlq ReportesFallidosLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		limite := int64(20)
		if raw := c.Query("limite"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 1 || n > 100 {
				c.JSON(http.StatusBadRequest, apierror.New("limite debe estar entre 1 y 100"))
				return
			}
			limite = n
		}
		entradas, err := dlq.Listar(c.Request.Context(), worker.QueueReportes, limite)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": entradas})
	}
}
