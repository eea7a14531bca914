package service

import (
	"fmt"
	"time"
)

// diaInicioPeriodo is the day of the month every accounting period starts on.
const diaInicioPeriodo = 7

var mesesES = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Ventana is the date range of an accounting period, both ends inclusive.
type Ventana struct {
	Inicio time.Time
	Fin    time.Time
}

// VentanaPara returns the window that contains hoy: the 7th of a month through
// the 6th of the next. Before the 7th the window started the previous month.
func VentanaPara(hoy time.Time) Ventana {
	y, m, d := hoy.Date()
	inicio := time.Date(y, m, diaInicioPeriodo, 0, 0, 0, 0, hoy.Location())
	if d < diaInicioPeriodo {
		inicio = inicio.AddDate(0, -1, 0)
	}
	return ventanaDesde(inicio)
}

// Siguiente is the window that starts one month after v.
func (v Ventana) Siguiente() Ventana {
	return ventanaDesde(v.Inicio.AddDate(0, 1, 0))
}

// Nombre renders the window as "<MesInicio> / <MesFin>".
func (v Ventana) Nombre() string {
	return fmt.Sprintf("%s / %s", mesesES[v.Inicio.Month()-1], mesesES[v.Fin.Month()-1])
}

func ventanaDesde(inicio time.Time) Ventana {
	return Ventana{Inicio: inicio, Fin: inicio.AddDate(0, 1, -1)}
}

// ReglaCierre is the business window, in days of the month, during which a
// period may be closed from the UI.
type ReglaCierre struct {
	DiaDesde int
	DiaHasta int
}

func (r ReglaCierre) Permite(hoy time.Time) bool {
	d := hoy.Day()
	return d >= r.DiaDesde && d <= r.DiaHasta
}
