package engine

import (
	"sort"

	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/vitrina/internal/domain"
)

// Dispatcher recorre el árbol efectivo y emite el árbol de RenderNode. No
// guarda estado entre llamadas: el mismo árbol se re-renderiza idéntico en
// cada request del storefront y en cada tecla del editor.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Dispatcher{registry: registry}
}

// Render camina el árbol padre-antes-que-hijos, hermanos por position.col.
// Por slot: visibilidad responsive, después view mode, después emisión. Los
// componentes se despachan por nombre contra el registry; un nombre sin
// renderer produce un placeholder visible y los hermanos siguen renderizando.
func (d *Dispatcher) Render(tree *domain.PageConfig, rctx *RenderContext) *domain.RenderNode {
	if rctx == nil {
		rctx = &RenderContext{Mode: domain.ModeStorefront}
	}
	if rctx.Flags == nil {
		rctx.Flags = tree.FeatureFlags
	}

	children := childIndex(tree)
	root := &domain.RenderNode{SlotID: "", Type: domain.SlotContainer, Tag: "div"}
	for _, slot := range children[""] {
		if node := d.renderSlot(slot, children, rctx); node != nil {
			root.Children = append(root.Children, node)
		}
	}
	return root
}

func (d *Dispatcher) renderSlot(slot *domain.Slot, children map[string][]*domain.Slot, rctx *RenderContext) *domain.RenderNode {
	if !IsVisible(slot, rctx.Viewport) {
		return nil
	}
	if !slot.RendersInViewMode(rctx.ViewMode) {
		return nil
	}

	if slot.Type == domain.SlotComponent {
		return d.renderComponent(slot, rctx)
	}

	node := literalNode(slot, rctx)
	for _, child := range children[slot.ID] {
		if cn := d.renderSlot(child, children, rctx); cn != nil {
			node.Children = append(node.Children, cn)
		}
	}
	return node
}

func (d *Dispatcher) renderComponent(slot *domain.Slot, rctx *RenderContext) *domain.RenderNode {
	name := slot.ComponentName()
	renderer, ok := d.registry.Lookup(name)
	if !ok {
		// Una referencia rota (plugin caído, componente renombrado) no
		// puede dejar la página en blanco.
		log.Warn().Str("component", name).Str("slot", slot.ID).Msg("componente sin renderer registrado")
		return &domain.RenderNode{
			SlotID:      slot.ID,
			ParentID:    slot.ParentID,
			Type:        slot.Type,
			Tag:         "div",
			ClassName:   "vitrina-placeholder",
			Content:     "Componente no disponible: " + name,
			Placeholder: true,
			Missing:     name,
		}
	}
	node := renderer.Render(slot, rctx)
	if node == nil {
		return nil
	}
	// El contrato con el editor exige ids estables aunque el renderer se
	// olvide de copiarlos.
	node.SlotID = slot.ID
	node.ParentID = slot.ParentID
	return node
}

// literalNode emite un slot no-componente: content, className y styles pasan
// por el procesador de templates contra el contexto del render, y las clases
// por la transformación responsive.
func literalNode(slot *domain.Slot, rctx *RenderContext) *domain.RenderNode {
	node := &domain.RenderNode{
		SlotID:   slot.ID,
		ParentID: slot.ParentID,
		Type:     slot.Type,
		Tag:      tagFor(slot),
		Props:    copyProps(slot.Props),
	}
	node.Content = Process(slot.Content, rctx.Data)
	node.ClassName = TransformClasses(Process(slot.ClassName, rctx.Data), rctx.Viewport)
	if len(slot.Styles) > 0 {
		node.Styles = make(map[string]string, len(slot.Styles))
		for k, v := range slot.Styles {
			node.Styles[k] = Process(v, rctx.Data)
		}
	}
	return node
}

// copyProps desacopla los props emitidos del árbol mergeado: el mismo árbol
// puede estar cacheado y servir otros renders.
func copyProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	return deepcopy.Copy(props).(map[string]any)
}

func tagFor(slot *domain.Slot) string {
	switch slot.Type {
	case domain.SlotText:
		return slot.HTMLTag("p")
	case domain.SlotButton:
		return "button"
	case domain.SlotImage:
		return "img"
	case domain.SlotHTML, domain.SlotCMS:
		return slot.HTMLTag("div")
	default:
		return "div"
	}
}

// childIndex agrupa los slots por padre y ordena cada grupo por position.col;
// el id desempata cols repetidas que el validador no haya visto.
func childIndex(tree *domain.PageConfig) map[string][]*domain.Slot {
	idx := make(map[string][]*domain.Slot)
	for _, slot := range tree.Slots {
		idx[slot.ParentID] = append(idx[slot.ParentID], slot)
	}
	for parent := range idx {
		group := idx[parent]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Position.Col != group[j].Position.Col {
				return group[i].Position.Col < group[j].Position.Col
			}
			return group[i].ID < group[j].ID
		})
	}
	return idx
}
