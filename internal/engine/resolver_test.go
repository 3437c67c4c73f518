package engine

import "testing"

func TestResolveNestedPath(t *testing.T) {
	ctx := map[string]any{
		"product": map[string]any{
			"name": "Lámpara Luna",
			"price": map[string]any{
				"amount": 8500.0,
			},
		},
	}

	if got := Resolve("product.name", ctx); got != "Lámpara Luna" {
		t.Errorf("Resolve(product.name) = %v", got)
	}
	if got := Resolve("product.price.amount", ctx); got != 8500.0 {
		t.Errorf("Resolve(product.price.amount) = %v", got)
	}
}

func TestResolveMissingPathReturnsNil(t *testing.T) {
	if got := Resolve("a.b.c", map[string]any{}); got != nil {
		t.Errorf("expected nil for missing path, got %v", got)
	}
	if got := Resolve("a.b.c", nil); got != nil {
		t.Errorf("expected nil for nil context, got %v", got)
	}
	// Un segmento intermedio escalar tampoco puede explotar.
	if got := Resolve("a.b", map[string]any{"a": 3}); got != nil {
		t.Errorf("expected nil walking into scalar, got %v", got)
	}
}

func TestResolveArrayIndex(t *testing.T) {
	ctx := map[string]any{
		"items": []any{
			map[string]any{"name": "A"},
			map[string]any{"name": "B"},
		},
	}
	if got := Resolve("items.1.name", ctx); got != "B" {
		t.Errorf("Resolve(items.1.name) = %v", got)
	}
	if got := Resolve("items.7.name", ctx); got != nil {
		t.Errorf("index out of range should resolve nil, got %v", got)
	}
	if got := Resolve("items.x", ctx); got != nil {
		t.Errorf("non-numeric index should resolve nil, got %v", got)
	}
}

func TestResolveStringSliceIndex(t *testing.T) {
	ctx := map[string]any{"tags": []string{"oferta", "nuevo"}}
	if got := Resolve("tags.0", ctx); got != "oferta" {
		t.Errorf("Resolve(tags.0) = %v", got)
	}
	if got := Resolve("tags.5", ctx); got != nil {
		t.Errorf("index out of range should resolve nil, got %v", got)
	}
}

func TestResolveStringMap(t *testing.T) {
	ctx := map[string]any{
		"settings": map[string]string{"currency": "ARS"},
	}
	if got := Resolve("settings.currency", ctx); got != "ARS" {
		t.Errorf("Resolve(settings.currency) = %v", got)
	}
}

func TestFormatValuePassesPreformattedStrings(t *testing.T) {
	// El contexto llega con los precios ya formateados por el productor;
	// FormatValue no debe volver a tocarlos.
	if got := FormatValue("ARS 8.500"); got != "ARS 8.500" {
		t.Errorf("FormatValue preformatted = %q", got)
	}
	if got := FormatValue(nil); got != "" {
		t.Errorf("FormatValue(nil) = %q, want empty", got)
	}
	if got := FormatValue(42); got != "42" {
		t.Errorf("FormatValue(42) = %q", got)
	}
	if got := FormatValue(true); got != "true" {
		t.Errorf("FormatValue(true) = %q", got)
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"empty string", "", false},
		{"string", "x", true},
		{"zero", 0, false},
		{"number", 3.5, true},
		{"empty slice", []any{}, false},
		{"slice", []any{1}, true},
		{"empty map", map[string]any{}, false},
		{"map", map[string]any{"a": 1}, true},
	}
	for _, c := range cases {
		if got := Truthy(c.in); got != c.want {
			t.Errorf("Truthy(%s) = %v, want %v", c.name, got, c.want)
		}
	}
}
