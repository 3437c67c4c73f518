package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// LoadCatalogContext lee una planilla de catálogo y arma el contexto de
// variables demo que usa el editor: el storefront renderiza con datos vivos,
// pero el editor necesita productos de muestra para previsualizar templates.
//
// Columnas esperadas en la primera hoja: A nombre, B precio, C categoría,
// D stock. Los precios salen ya formateados (price_formatted): el resolver
// nunca re-formatea un valor que el productor del contexto ya formateó.
func LoadCatalogContext(r io.Reader) (map[string]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir la planilla: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("planilla sin hojas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	products := []map[string]any{}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" || strings.EqualFold(name, "nombre") || strings.EqualFold(name, "name") {
			continue
		}
		price := 0.0
		if len(row) > 1 {
			raw := strings.ReplaceAll(strings.TrimSpace(row[1]), ",", ".")
			p, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				log.Debug().Int("fila", i+1).Str("valor", row[1]).Msg("precio ilegible, queda en 0")
			} else {
				price = p
			}
		}
		category := ""
		if len(row) > 2 {
			category = strings.TrimSpace(row[2])
		}
		stock := 0
		if len(row) > 3 {
			if n, err := strconv.Atoi(strings.TrimSpace(row[3])); err == nil {
				stock = n
			}
		}
		products = append(products, map[string]any{
			"name":            name,
			"price":           price,
			"price_formatted": formatARS(price),
			"category":        category,
			"stock":           stock,
			"in_stock":        stock > 0,
		})
	}

	ctx := map[string]any{
		"products": products,
	}
	if len(products) > 0 {
		ctx["product"] = products[0]
	}
	return ctx, nil
}

// formatARS agrupa miles con punto, estilo ARS 8.500.
func formatARS(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	n := len(s)
	neg := false
	if n > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
		n--
	}
	if n <= 3 {
		if neg {
			return "ARS -" + s
		}
		return "ARS " + s
	}
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out := s[:rem]
	for i := rem; i < n; i += 3 {
		out += "." + s[i:i+3]
	}
	if neg {
		out = "-" + out
	}
	return "ARS " + out
}
