package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"visionallende/internal/apierror"
	"visionallende/internal/dto"
	"visionallende/internal/infra"

	"github.com/gin-gonic/gin"
)

// ArchivosHandler serves prescription images and payment receipts.
type ArchivosHandler struct {
	store *infra.Archivos
}

func NewArchivosHandler(store *infra.Archivos) *ArchivosHandler {
	return &ArchivosHandler{store: store}
}

// Subir godoc
// @Summary      Subir imagen
// @Description  Acepta JPEG o PNG de hasta MAX_UPLOAD_MB. Devuelve la ruta relativa a guardar en la venta o graduación.
// @Tags         archivos
// @Accept       multipart/form-data
// @Produce      json
// @Security     CookieAuth
// @Param        categoria formData string true "receta | comprobante | general"
// @Param        archivo   formData file   true "Imagen"
// @Success      201  {object} dto.ArchivoResponse
// @Failure      413  {object} apierror.APIError
// @Failure      415  {object} apierror.APIError
// @Router       /v1/archivos [post]
func (h *ArchivosHandler) Subir(c *gin.Context) {
	categoria := c.PostForm("categoria")
	fh, err := c.FormFile("archivo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Falta el archivo"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer f.Close()

	guardado, err := h.store.Guardar(categoria, f)
	if err != nil {
		respondArchivoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ArchivoResponse{
		Ruta:        guardado.Ruta,
		Categoria:   guardado.Categoria,
		ContentType: guardado.ContentType,
		Tamano:      guardado.Tamano,
	})
}

func (h *ArchivosHandler) Descargar(c *gin.Context) {
	f, err := h.store.Abrir(rutaParam(c))
	if err != nil {
		respondArchivoError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		_ = c.Error(err)
		return
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

func (h *ArchivosHandler) Eliminar(c *gin.Context) {
	if err := h.store.Eliminar(rutaParam(c)); err != nil {
		respondArchivoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func rutaParam(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

func respondArchivoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, infra.ErrCategoriaInvalida), errors.Is(err, infra.ErrRutaInvalida), errors.Is(err, infra.ErrArchivoVacio):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, infra.ErrTipoNoPermitido):
		c.JSON(http.StatusUnsupportedMediaType, apierror.New(err.Error()))
	case errors.Is(err, infra.ErrArchivoGrande):
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New(err.Error()))
	case errors.Is(err, fs.ErrNotExist):
		c.JSON(http.StatusNotFound, apierror.New("Archivo no encontrado"))
	default:
		_ = c.Error(err)
	}
}
