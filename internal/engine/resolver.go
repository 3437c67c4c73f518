// Package engine implementa el núcleo de render de páginas: resolución de
// variables, procesamiento de templates {{...}}, merge de variantes A/B,
// resolución responsive y el dispatcher que produce el árbol de RenderNode.
//
// Todo el paquete es puro: cada llamada opera sobre su propio contexto y su
// propio árbol, sin estado compartido entre renders concurrentes.
package engine

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Resolve busca un path con puntos ("product.price_formatted") dentro del
// contexto. Soporta índices numéricos para slices ("items.0.name"). Un
// segmento que no resuelve devuelve nil, nunca panic.
func Resolve(path string, ctx map[string]any) any {
	if path == "" || ctx == nil {
		return nil
	}
	var cur any = ctx
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil
		}
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil
			}
			cur = next
		case map[string]string:
			next, ok := v[seg]
			if !ok {
				return nil
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			cur = v[idx]
		case []map[string]any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			cur = v[idx]
		case []string:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			cur = v[idx]
		default:
			return nil
		}
	}
	return cur
}

// FormatValue convierte un valor resuelto en texto para mostrar. Regla dura:
// los valores de negocio ya formateados (precios, descuentos) llegan como
// string desde el armado del contexto y acá no se vuelven a formatear; dos
// caminos de formateo independientes divergen en silencio.
func FormatValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// Truthy evalúa un valor al estilo de los condicionales de template: nil,
// false, cero, string vacío y colecciones vacías son falsos.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case []map[string]any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	case map[string]string:
		return len(x) > 0
	}
	if n, err := cast.ToFloat64E(v); err == nil {
		return n != 0
	}
	return true
}
