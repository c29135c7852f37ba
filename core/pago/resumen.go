package pago

import (
	"sort"
	"strconv"
	"strings"
)

// Resumir totals the paid pagos, grouped by the month they were paid in.
// Unpaid pagos and pagos without pagado_en are ignored.
func Resumir(pagos []Pago) Resumen {
	res := Resumen{IngresosMensuales: []IngresoMensual{}}
	totals := make(map[string]int64)
	for _, p := range pagos {
		if !p.Pagado || !p.PagadoEn.Valid {
			continue
		}
		res.TotalRecaudado += p.Monto
		totals[p.PagadoEn.Time.UTC().Format("2006-01")] += p.Monto
	}

	for mes, total := range totals {
		res.IngresosMensuales = append(res.IngresosMensuales, IngresoMensual{Mes: mes, Total: total})
	}
	sort.Slice(res.IngresosMensuales, func(i, j int) bool {
		return res.IngresosMensuales[i].Mes < res.IngresosMensuales[j].Mes
	})
	return res
}

// FormatMonto renders an amount of pesos the Chilean way: $35.000
func FormatMonto(monto int64) string {
	sign := ""
	if monto < 0 {
		sign = "-"
		monto = -monto
	}
	digits := strconv.FormatInt(monto, 10)

	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}
