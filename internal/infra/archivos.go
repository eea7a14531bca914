package infra

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Upload categories; each one is a sub-directory of the upload root.
const (
	CategoriaReceta      = "receta"
	CategoriaComprobante = "comprobante"
	CategoriaGeneral     = "general"
)

var Categorias = []string{CategoriaReceta, CategoriaComprobante, CategoriaGeneral}

var (
	ErrCategoriaInvalida = errors.New("categoria de archivo invalida")
	ErrTipoNoPermitido   = errors.New("solo se permiten imagenes JPEG o PNG")
	ErrArchivoGrande     = errors.New("el archivo supera el tamano maximo")
	ErrRutaInvalida      = errors.New("ruta de archivo invalida")
	ErrArchivoVacio      = errors.New("archivo vacio")
)

var extensiones = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ArchivoGuardado describes a stored upload. Ruta is relative to the upload
// root and is what the database keeps.
type ArchivoGuardado struct {
	Ruta        string
	Categoria   string
	ContentType string
	Tamano      int64
}

// Archivos stores image uploads on the local disk under base.
type Archivos struct {
	base     string
	maxBytes int64
}

func NewArchivos(base string, maxBytes int64) *Archivos {
	return &Archivos{base: base, maxBytes: maxBytes}
}

// Preparar creates the upload root and one directory per category.
func (a *Archivos) Preparar() error {
	for _, c := range Categorias {
		if err := os.MkdirAll(filepath.Join(a.base, c), 0o755); err != nil {
			return fmt.Errorf("archivos: crear %s: %w", c, err)
		}
	}
	return nil
}

// Guardar sniffs the content, rejects anything that is not JPEG/PNG or is
// larger than the limit, and writes it as <categoria>/<uuid>.<ext>.
func (a *Archivos) Guardar(categoria string, r io.Reader) (*ArchivoGuardado, error) {
	if !categoriaValida(categoria) {
		return nil, ErrCategoriaInvalida
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, a.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("archivos: leer: %w", err)
	}
	if n == 0 {
		return nil, ErrArchivoVacio
	}
	if n > a.maxBytes {
		return nil, ErrArchivoGrande
	}

	contentType := http.DetectContentType(buf.Bytes())
	ext, ok := extensiones[contentType]
	if !ok {
		return nil, ErrTipoNoPermitido
	}

	dir := filepath.Join(a.base, categoria)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("archivos: crear directorio: %w", err)
	}

	nombre := uuid.NewString() + ext
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("archivos: temporal: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("archivos: escribir: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("archivos: cerrar: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, nombre)); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("archivos: renombrar: %w", err)
	}

	return &ArchivoGuardado{
		Ruta:        categoria + "/" + nombre,
		Categoria:   categoria,
		ContentType: contentType,
		Tamano:      n,
	}, nil
}

// Abrir returns the stored file for ruta. The caller closes it.
func (a *Archivos) Abrir(ruta string) (*os.File, error) {
	full, err := a.resolver(ruta)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (a *Archivos) Eliminar(ruta string) error {
	full, err := a.resolver(ruta)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// resolver maps a relative path to a file inside base. Only
// "<categoria>/<archivo>" is accepted, so "..", absolute paths and nested
// directories never leave the upload root.
func (a *Archivos) resolver(ruta string) (string, error) {
	ruta = strings.TrimPrefix(strings.ReplaceAll(ruta, "\\", "/"), "/")
	if ruta == "" || strings.Contains(ruta, "..") {
		return "", ErrRutaInvalida
	}
	limpia := path.Clean(ruta)
	partes := strings.Split(limpia, "/")
	if len(partes) != 2 || !categoriaValida(partes[0]) || partes[1] == "" || strings.HasPrefix(partes[1], ".") {
		return "", ErrRutaInvalida
	}

	full := filepath.Join(a.base, partes[0], partes[1])
	base, err := filepath.Abs(a.base)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", ErrRutaInvalida
	}
	return full, nil
}

func categoriaValida(c string) bool {
	for _, v := range Categorias {
		if c == v {
			return true
		}
	}
	return false
}
