package worker

// reporte_worker.go
// Builds the spreadsheet of a report job and mails it to the bookkeeper.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"visionallende/internal/dto"
	"visionallende/internal/infra"
	"visionallende/internal/service"

	"github.com/rs/zerolog/log"
)

// ReporteJobPayload is the job envelope sent to QueueReportes.
type ReporteJobPayload struct {
	Filtro       dto.ReporteFilter `json:"filtro"`
	Destinatario string            `json:"destinatario"`
}

// ReporteMailer is the part of infra.Mailer the worker needs.
type ReporteMailer interface {
	EnviarReporte(to, subject, body string, adjunto infra.Adjunto) error
}

type ReporteWorker struct {
	reportes service.ReporteService
	mailer   ReporteMailer
	destino  string
}

// NewReporteWorker: destino is used when a job has no recipient.
func NewReporteWorker(reportes service.ReporteService, mailer ReporteMailer, destino string) *ReporteWorker {
	return &ReporteWorker{reportes: reportes, mailer: mailer, destino: destino}
}

func (w *ReporteWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReporteJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("reporte_worker: invalid payload: %w", err)
	}
	to := payload.Destinatario
	if to == "" {
		to = w.destino
	}
	if to == "" {
		return fmt.Errorf("reporte_worker: sin destinatario")
	}

	data, err := w.reportes.Extraer(ctx, payload.Filtro)
	if err != nil {
		return fmt.Errorf("reporte_worker: extraer: %w", err)
	}

	var buf bytes.Buffer
	if err := infra.ExportarReporteXLSX(&buf, data, payload.Filtro.Tipo, payload.Filtro.Completo); err != nil {
		return err
	}

	adjunto := infra.Adjunto{
		Nombre:    NombreArchivoReporte(data),
		Contenido: buf.Bytes(),
	}
	body := fmt.Sprintf("Reporte %s (%s a %s).\nVentas: %d\nTotal depositado: %s\nSaldo pendiente: %s\n",
		data.Titulo, data.Desde, data.Hasta,
		data.Resumen.CantidadVentas,
		data.Resumen.TotalDepositado.StringFixed(2),
		data.Resumen.SaldoPendiente.StringFixed(2))

	if err := w.mailer.EnviarReporte(to, "Reporte "+data.Titulo, body, adjunto); err != nil {
		return fmt.Errorf("reporte_worker: enviar: %w", err)
	}
	log.Info().Str("to", to).Str("reporte", data.Titulo).Msg("reporte_worker: reporte enviado")
	return nil
}

// NombreArchivoReporte is the attachment/download file name for a report.
func NombreArchivoReporte(data *dto.ReporteData) string {
	return fmt.Sprintf("reporte_%s_%s.xlsx", data.Desde, data.Hasta)
}
