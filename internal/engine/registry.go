package engine

import (
	"sort"

	"github.com/phenrril/vitrina/internal/domain"
)

// RenderContext es el estado de un pase de render: datos ya armados por el
// data loader de la página, modo, viewport simulado y view mode activo. Se
// crea por request o por tecla del editor y nunca se comparte entre renders.
type RenderContext struct {
	Data     map[string]any
	Mode     domain.RenderMode
	Viewport domain.Viewport
	ViewMode string
	Flags    map[string]any
}

// ComponentRenderer produce el subárbol de un slot de tipo component. El
// renderer es el único que decide qué cambia con rctx.Mode (por ejemplo datos
// demo en editor contra contexto vivo en storefront).
type ComponentRenderer interface {
	Render(slot *domain.Slot, rctx *RenderContext) *domain.RenderNode
}

// ComponentRendererFunc adapta una función al contrato de renderer.
type ComponentRendererFunc func(slot *domain.Slot, rctx *RenderContext) *domain.RenderNode

func (f ComponentRendererFunc) Render(slot *domain.Slot, rctx *RenderContext) *domain.RenderNode {
	return f(slot, rctx)
}

// Registry es el mapa plano nombre de componente -> renderer. Se construye
// una vez al armar la aplicación y se pasa por referencia al Dispatcher: no
// hay registro global, así conviven pipelines independientes (una por tienda
// o por test) sin pisarse.
type Registry struct {
	renderers map[string]ComponentRenderer
}

func NewRegistry() *Registry {
	return &Registry{renderers: map[string]ComponentRenderer{}}
}

func (r *Registry) Register(name string, cr ComponentRenderer) {
	if name == "" || cr == nil {
		return
	}
	r.renderers[name] = cr
}

func (r *Registry) Lookup(name string) (ComponentRenderer, bool) {
	cr, ok := r.renderers[name]
	return cr, ok
}

// Names lista los componentes registrados, ordenados para salida estable.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
