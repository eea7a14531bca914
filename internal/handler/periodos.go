package handler

import (
	"net/http"

	"visionallende/internal/apierror"
	"visionallende/internal/middleware"
	"visionallende/internal/model"
	"visionallende/internal/service"

	"github.com/gin-gonic/gin"
)

type PeriodosHandler struct{ svc service.PeriodoService }

func NewPeriodosHandler(svc service.PeriodoService) *PeriodosHandler {
	return &PeriodosHandler{svc: svc}
}

// Activo returns the open period, creating it when none exists yet.
func (h *PeriodosHandler) Activo(c *gin.Context) {
	resp, err := h.svc.ObtenerActivo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PeriodosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PeriodosHandler) Obtener(c *gin.Context) {
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

// Cerrar godoc
// @Summary      Cerrar período y abrir el siguiente
// @Description  Cierra el período activo y traslada los saldos pendientes al nuevo período.
// @Description  Fuera de la ventana de cierre solo un administrador puede forzarlo con forzar=true.
// @Tags         periodos
// @Produce      json
// @Security     CookieAuth
// @Param        forzar query bool false "Ignorar la ventana de cierre (administrador)"
// @Success      200  {object} dto.CierrePeriodoResponse
// @Failure      403  {object} apierror.APIError
// @Failure      409  {object} apierror.ConflictError
// @Router       /v1/periodos/cerrar [post]
func (h *PeriodosHandler) Cerrar(c *gin.Context) {
	forzar := c.Query("forzar") == "true"
	if forzar {
		claims := middleware.GetClaims(c)
		if claims == nil || claims.Rol != model.RolAdministrador {
			c.JSON(http.StatusForbidden, apierror.New("Solo un administrador puede forzar el cierre"))
			return
		}
	} else if !h.svc.PuedeCerrar() {
		c.JSON(http.StatusConflict, apierror.NewConflict("Fuera de la ventana de cierre del período", ""))
		return
	}

	resp, err := h.svc.CerrarYAbrir(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
