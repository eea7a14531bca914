package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"visionallende/internal/dto"
	"visionallende/internal/infra"
	"visionallende/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type VentasHandler struct {
	svc       service.VentaService
	depositos service.DepositoService
}

func NewVentasHandler(svc service.VentaService, depositos service.DepositoService) *VentasHandler {
	return &VentasHandler{svc: svc, depositos: depositos}
}

// Crear godoc
// @Summary      Registrar una nueva venta
// @Description  Crea la venta en el período activo. Un depósito inicial se registra como primer abono.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body body dto.CrearVentaRequest true "Detalle de la venta"
// @Success      201  {object} dto.VentaResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/ventas [post]
func (h *VentasHandler) Crear(c *gin.Context) {
	var req dto.CrearVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar ventas
// @Description  Lista paginada. Sin periodo_id ni cliente_id se usa el período activo; estado=con_saldo filtra ventas con saldo.
// @Tags         ventas
// @Produce      json
// @Security     CookieAuth
// @Param        periodo_id query string false "UUID del período"
// @Param        cliente_id query string false "UUID del cliente"
// @Param        estado     query string false "Estado"
// @Param        page       query int    false "Página"
// @Param        limit      query int    false "Tamaño de página"
// @Success      200  {object} dto.VentaListResponse
// @Router       /v1/ventas [get]
func (h *VentasHandler) Listar(c *gin.Context) {
	var filter dto.VentaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VentasHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VentasHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstado godoc
// @Summary      Cambiar estado de la venta
// @Description  listo registra la llegada del laboratorio y entregado la fecha de entrega. cancelado es definitivo.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id   path string                   true "UUID de la venta"
// @Param        body body dto.CambiarEstadoRequest true "Nuevo estado"
// @Success      200  {object} dto.VentaResponse
// @Failure      409  {object} apierror.ConflictError
// @Router       /v1/ventas/{id}/estado [patch]
func (h *VentasHandler) CambiarEstado(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VentasHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Nota renders the printable sale receipt.
func (h *VentasHandler) Nota(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	venta, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := infra.GenerarNotaVentaPDF(&buf, venta); err != nil {
		log.Error().Err(err).Str("venta_id", venta.ID).Msg("nota de venta: generar pdf")
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"nota_%d.pdf\"", venta.NumeroVenta))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// ── Depósitos ────────────────────────────────────────────────────────────────

// AgregarDeposito godoc
// @Summary      Registrar abono
// @Description  El monto no puede superar el saldo restante. Devuelve la venta con saldos recalculados.
// @Tags         depositos
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id   path string              true "UUID de la venta"
// @Param        body body dto.DepositoRequest true "Abono"
// @Success      201  {object} dto.VentaResponse
// @Failure      409  {object} apierror.ConflictError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/ventas/{id}/depositos [post]
func (h *VentasHandler) AgregarDeposito(c *gin.Context) {
	ventaID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.DepositoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.depositos.Agregar(c.Request.Context(), ventaID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *VentasHandler) ListarDepositos(c *gin.Context) {
	ventaID, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.depositos.Listar(c.Request.Context(), ventaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VentasHandler) EditarDeposito(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.DepositoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.depositos.Editar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VentasHandler) EliminarDeposito(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.depositos.Eliminar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
