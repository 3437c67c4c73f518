package engine

import (
	"strings"

	"github.com/phenrril/vitrina/internal/domain"
)

// Prefijos responsive de las clases utilitarias, de más angosto a más ancho.
var responsivePrefixes = []string{"sm:", "md:", "lg:", "xl:", "2xl:"}

// TransformClasses reescribe clases utilitarias con prefijo responsive para el
// viewport simulado del editor. El editor no puede evaluar media queries
// reales, así que aproxima la cascada reescribiendo en forma imperativa:
//
//   - storefront (viewport vacío) y desktop: sin cambios, el CSS real decide.
//   - tablet: sm:, md: y lg: pierden el prefijo; xl: y 2xl: se descartan.
//   - mobile: todo prefijo se quita (es el viewport más angosto).
func TransformClasses(classString string, viewport domain.Viewport) string {
	if classString == "" {
		return classString
	}
	switch viewport {
	case domain.ViewportNone, domain.ViewportDesktop:
		return classString
	}

	tokens := strings.Fields(classString)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		prefix := responsivePrefix(tok)
		if prefix == "" {
			out = append(out, tok)
			continue
		}
		switch viewport {
		case domain.ViewportMobile:
			out = append(out, strings.TrimPrefix(tok, prefix))
		case domain.ViewportTablet:
			if prefix == "xl:" || prefix == "2xl:" {
				continue
			}
			out = append(out, strings.TrimPrefix(tok, prefix))
		}
	}
	return strings.Join(out, " ")
}

func responsivePrefix(tok string) string {
	for _, p := range responsivePrefixes {
		if strings.HasPrefix(tok, p) {
			return p
		}
	}
	return ""
}

// IsVisible decide si un slot se muestra bajo el viewport activo. En
// storefront siempre es true: ahí las media queries reales manejan la
// visibilidad y este resolver es un pass-through. En modo simulado, un slot
// cuyas clases transformadas incluyen "hidden" no se renderiza.
func IsVisible(slot *domain.Slot, viewport domain.Viewport) bool {
	if viewport == domain.ViewportNone {
		return true
	}
	for _, tok := range strings.Fields(TransformClasses(slot.ClassName, viewport)) {
		if tok == "hidden" {
			return false
		}
	}
	return true
}
