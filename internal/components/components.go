// Package components trae los renderers incluidos de la plataforma. Cada
// tienda puede sumar los suyos al registry en el arranque; estos cubren lo
// que toda vitrina necesita de entrada.
package components

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/phenrril/vitrina/internal/domain"
	"github.com/phenrril/vitrina/internal/engine"
)

// RegisterBuiltins carga los componentes estándar en el registry.
func RegisterBuiltins(reg *engine.Registry) {
	reg.Register("ProductGrid", engine.ComponentRendererFunc(ProductGrid))
	reg.Register("CMSBlock", engine.ComponentRendererFunc(CMSBlock))
	reg.Register("AnnouncementBar", engine.ComponentRendererFunc(AnnouncementBar))
}

// demoProducts alimenta el editor cuando el contexto no trae catálogo: el
// preview nunca muestra una grilla vacía por falta de datos.
var demoProducts = []map[string]any{
	{"name": "Producto de muestra 1", "price_formatted": "ARS 9.999", "image": "/static/demo-1.jpg"},
	{"name": "Producto de muestra 2", "price_formatted": "ARS 14.500", "image": "/static/demo-2.jpg"},
	{"name": "Producto de muestra 3", "price_formatted": "ARS 7.250", "image": "/static/demo-3.jpg"},
}

// ProductGrid arma una grilla de tarjetas desde rctx.Data["products"]. En
// editor, si no hay catálogo cargado, usa productos demo; en storefront una
// lista vacía rinde la grilla vacía y listo.
func ProductGrid(slot *domain.Slot, rctx *engine.RenderContext) *domain.RenderNode {
	products := toProductList(rctx.Data["products"])
	if len(products) == 0 && rctx.Mode == domain.ModeEditor {
		products = demoProducts
	}

	limit := cast.ToInt(slot.Props["limit"])
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}

	grid := &domain.RenderNode{
		Type:      slot.Type,
		Tag:       "div",
		ClassName: engine.TransformClasses(gridClass(slot), rctx.Viewport),
	}
	for i, p := range products {
		grid.Children = append(grid.Children, productCard(slot.ID, i, p, rctx))
	}
	return grid
}

func gridClass(slot *domain.Slot) string {
	if slot.ClassName != "" {
		return slot.ClassName
	}
	return "grid grid-cols-2 md:grid-cols-4 gap-4"
}

func productCard(slotID string, i int, p map[string]any, rctx *engine.RenderContext) *domain.RenderNode {
	card := &domain.RenderNode{
		SlotID:    fmt.Sprintf("%s-card-%d", slotID, i),
		ParentID:  slotID,
		Type:      domain.SlotContainer,
		Tag:       "div",
		ClassName: "product-card",
	}
	if src := cast.ToString(p["image"]); src != "" {
		card.Children = append(card.Children, &domain.RenderNode{
			SlotID:   fmt.Sprintf("%s-card-%d-img", slotID, i),
			ParentID: card.SlotID,
			Type:     domain.SlotImage,
			Tag:      "img",
			Props:    map[string]any{"src": src, "alt": cast.ToString(p["name"])},
		})
	}
	card.Children = append(card.Children,
		&domain.RenderNode{
			SlotID:   fmt.Sprintf("%s-card-%d-name", slotID, i),
			ParentID: card.SlotID,
			Type:     domain.SlotText,
			Tag:      "p",
			Content:  cast.ToString(p["name"]),
		},
		&domain.RenderNode{
			SlotID:    fmt.Sprintf("%s-card-%d-price", slotID, i),
			ParentID:  card.SlotID,
			Type:      domain.SlotText,
			Tag:       "span",
			ClassName: "product-price",
			Content:   engine.FormatValue(p["price_formatted"]),
		},
	)
	return card
}

func toProductList(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// CMSBlock renderiza un bloque de contenido editorial: el template del slot
// (props.template o content) pasa por el procesador con el contexto del
// render y sale como html crudo.
func CMSBlock(slot *domain.Slot, rctx *engine.RenderContext) *domain.RenderNode {
	tpl := cast.ToString(slot.Props["template"])
	if tpl == "" {
		tpl = slot.Content
	}
	return &domain.RenderNode{
		Type:      domain.SlotHTML,
		Tag:       "div",
		ClassName: engine.TransformClasses(slot.ClassName, rctx.Viewport),
		Content:   engine.Process(tpl, rctx.Data),
	}
}

// AnnouncementBar muestra un aviso global gobernado por el feature flag
// announcement_bar. Con el flag apagado no emite nada y el dispatcher omite
// el slot completo.
func AnnouncementBar(slot *domain.Slot, rctx *engine.RenderContext) *domain.RenderNode {
	if !cast.ToBool(rctx.Flags["announcement_bar"]) {
		return nil
	}
	text := cast.ToString(slot.Props["text"])
	if text == "" {
		text = slot.Content
	}
	return &domain.RenderNode{
		Type:      slot.Type,
		Tag:       "div",
		ClassName: "announcement-bar",
		Content:   engine.Process(text, rctx.Data),
	}
}
