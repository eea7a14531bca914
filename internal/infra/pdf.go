package infra

// pdf.go: sale receipt ("nota de venta") rendered with go-pdf/fpdf.
// Half-letter portrait page with:
//   - Shop header and sale number
//   - Client and frame/lens details
//   - Price breakdown and total
//   - Deposit history
//   - Remaining balance in bold

import (
	"fmt"
	"io"

	"visionallende/internal/dto"

	"github.com/go-pdf/fpdf"
)

// NombreOptica is printed on every receipt header.
const NombreOptica = "Óptica Vision Allende"

// GenerarNotaVentaPDF writes the receipt of v to w.
func GenerarNotaVentaPDF(w io.Writer, v *dto.VentaResponse) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 140, Ht: 216},
	})
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr(NombreOptica), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Nota de venta", "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW/2, 6, fmt.Sprintf("Venta N° %d", v.NumeroVenta), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW/2, 6, "Fecha: "+v.FechaVenta, "", 1, "R", false, 0, "")
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Cliente: %s (Exp. %s)", v.ClienteNombre, v.Expediente)), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, tr("Estado: "+v.Estado), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Detalle ──────────────────────────────────────────────────────────────
	labelW := contentW * 0.65
	valueW := contentW * 0.35
	fila := func(label, value string) {
		pdf.CellFormat(labelW, 5, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 5, tr(value), "", 1, "R", false, 0, "")
	}

	armazon := joinNonEmpty(v.ArmazonMarca, v.ArmazonModelo)
	if armazon != "" {
		fila("Armazón: "+armazon, "$"+v.PrecioArmazon.StringFixed(2))
	} else {
		fila("Armazón", "$"+v.PrecioArmazon.StringFixed(2))
	}
	mica := "Micas"
	if v.TipoMica != nil && *v.TipoMica != "" {
		mica += ": " + *v.TipoMica
	}
	fila(mica, "$"+v.PrecioMicas.StringFixed(2))
	if v.Laboratorio != nil && *v.Laboratorio != "" {
		fila("Laboratorio: "+*v.Laboratorio, "")
	}
	if v.VentaOrigenID != nil && v.Notas != nil {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, tr(*v.Notas), "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
	}

	pdf.SetFont("Helvetica", "B", 10)
	fila("TOTAL", "$"+v.CostoTotal.StringFixed(2))
	pdf.Ln(2)

	// ── Depósitos ────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW*0.3, 5, "Fecha", "B", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.4, 5, tr("Método"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.3, 5, "Monto", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if len(v.Depositos) == 0 {
		pdf.CellFormat(contentW, 5, tr("Sin depósitos registrados"), "", 1, "L", false, 0, "")
	}
	for _, d := range v.Depositos {
		pdf.CellFormat(contentW*0.3, 5, d.FechaDeposito, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.4, 5, d.MetodoPago, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.3, 5, "$"+d.Monto.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Totales ──────────────────────────────────────────────────────────────
	fila("Total depositado", "$"+v.TotalDepositado.StringFixed(2))
	pdf.SetFont("Helvetica", "B", 11)
	fila("SALDO", "$"+v.SaldoRestante.StringFixed(2))

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 4, tr("Conserve esta nota para retirar sus lentes."), "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}

func joinNonEmpty(parts ...*string) string {
	out := ""
	for _, p := range parts {
		if p == nil || *p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += *p
	}
	return out
}
