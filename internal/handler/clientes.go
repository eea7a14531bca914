package handler

import (
	"net/http"

	"visionallende/internal/dto"
	"visionallende/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientesHandler struct{ svc service.ClienteService }

func NewClientesHandler(svc service.ClienteService) *ClientesHandler {
	return &ClientesHandler{svc: svc}
}

// Crear godoc
// @Summary      Registrar cliente
// @Description  Alta de cliente con expediente único. Un expediente repetido devuelve 409 con el id existente.
// @Tags         clientes
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        body body dto.ClienteRequest true "Cliente"
// @Success      201  {object} dto.ClienteResponse
// @Failure      409  {object} apierror.ConflictError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/clientes [post]
func (h *ClientesHandler) Crear(c *gin.Context) {
	var req dto.ClienteRequest
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
// @Summary      Listar clientes
// @Tags         clientes
// @Produce      json
// @Security     CookieAuth
// @Param        q     query string false "Nombre o expediente"
// @Param        page  query int    false "Página"
// @Param        limit query int    false "Tamaño de página"
// @Success      200  {object} dto.ClienteListResponse
// @Router       /v1/clientes [get]
func (h *ClientesHandler) Listar(c *gin.Context) {
	var filter dto.ClienteFilter
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

func (h *ClientesHandler) Obtener(c *gin.Context) {
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

func (h *ClientesHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ClienteRequest
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

// Eliminar godoc
// @Summary      Eliminar cliente
// @Description  Falla con 409 si el cliente tiene ventas registradas.
// @Tags         clientes
// @Security     CookieAuth
// @Param        id path string true "UUID del cliente"
// @Success      204
// @Failure      409 {object} apierror.ConflictError
// @Router       /v1/clientes/{id} [delete]
func (h *ClientesHandler) Eliminar(c *gin.Context) {
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

// ── Graduaciones Handler ─────────────────────────────────────────────────────

type GraduacionesHandler struct{ svc service.GraduacionService }

func NewGraduacionesHandler(svc service.GraduacionService) *GraduacionesHandler {
	return &GraduacionesHandler{svc: svc}
}

// Crear godoc
// @Summary      Registrar graduación
// @Description  Una graduación por tipo (lejos/cerca) y cliente. Duplicado devuelve 409 con el id existente.
// @Tags         graduaciones
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id   path string                true "UUID del cliente"
// @Param        body body dto.GraduacionRequest true "Graduación"
// @Success      201  {object} dto.GraduacionResponse
// @Failure      409  {object} apierror.ConflictError
// @Router       /v1/clientes/{id}/graduaciones [post]
func (h *GraduacionesHandler) Crear(c *gin.Context) {
	clienteID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.GraduacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), clienteID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *GraduacionesHandler) Listar(c *gin.Context) {
	clienteID, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), clienteID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GraduacionesHandler) Obtener(c *gin.Context) {
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

func (h *GraduacionesHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.GraduacionRequest
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

func (h *GraduacionesHandler) Eliminar(c *gin.Context) {
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
