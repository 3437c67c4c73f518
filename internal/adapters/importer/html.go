// Package importer arma PageConfigs y contextos de variables desde fuentes
// externas: HTML existente (migración de páginas viejas al builder) y
// planillas de catálogo para los datos demo del editor.
package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/phenrril/vitrina/internal/domain"
)

type HTMLImporter struct{}

func NewHTMLImporter() *HTMLImporter { return &HTMLImporter{} }

// Import convierte un documento HTML en un árbol de slots draft. La
// conversión es estructural: headings y párrafos a slots de texto, imágenes y
// botones a sus tipos, contenedores según sus clases, y cualquier cosa que no
// mapea queda como slot html crudo. El árbol resultante pasa por el validador
// antes de devolverse.
func (im *HTMLImporter) Import(r io.Reader, storeID uuid.UUID, pageType string) (*domain.PageConfig, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("no se pudo parsear el HTML: %w", err)
	}

	cfg := &domain.PageConfig{
		ID:       uuid.New(),
		StoreID:  storeID,
		PageType: pageType,
		Status:   domain.PageStatusDraft,
		Slots:    map[string]*domain.Slot{},
	}

	counter := map[string]int{}
	body := doc.Find("body")
	col := 0
	body.Children().Each(func(_ int, sel *goquery.Selection) {
		if im.importNode(sel, cfg, "", col, counter) {
			col++
		}
	})

	if err := domain.ValidateTree(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// importNode crea el slot de un elemento y baja recursivo por sus hijos
// cuando el tipo lo admite. Devuelve false para nodos que se descartan
// (scripts, estilos, texto suelto).
func (im *HTMLImporter) importNode(sel *goquery.Selection, cfg *domain.PageConfig, parentID string, col int, counter map[string]int) bool {
	// Children() sólo entrega nodos elemento, así que acá siempre hay tag.
	if len(sel.Nodes) == 0 {
		return false
	}
	tag := strings.ToLower(sel.Nodes[0].Data)
	if tag == "script" || tag == "style" || tag == "link" || tag == "meta" {
		return false
	}

	slot := &domain.Slot{
		ParentID:  parentID,
		ClassName: sel.AttrOr("class", ""),
		Position:  domain.Position{Col: col},
	}

	if name, ok := sel.Attr("data-component"); ok && name != "" {
		slot.Type = domain.SlotComponent
		slot.Metadata = map[string]any{"component": name}
	} else {
		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6", "p", "span", "blockquote":
			slot.Type = domain.SlotText
			slot.Content = strings.TrimSpace(sel.Text())
			slot.Metadata = map[string]any{"htmlTag": tag}
		case "img":
			slot.Type = domain.SlotImage
			slot.Props = map[string]any{
				"src": sel.AttrOr("src", ""),
				"alt": sel.AttrOr("alt", ""),
			}
		case "a", "button":
			slot.Type = domain.SlotButton
			slot.Content = strings.TrimSpace(sel.Text())
			if href, ok := sel.Attr("href"); ok {
				slot.Props = map[string]any{"href": href}
			}
		case "div", "section", "main", "header", "footer", "article", "nav", "ul", "ol":
			slot.Type = containerType(slot.ClassName)
		default:
			slot.Type = domain.SlotHTML
			raw, err := goquery.OuterHtml(sel)
			if err != nil {
				return false
			}
			slot.Content = raw
		}
	}

	slot.ID = nextID(counter, string(slot.Type))
	cfg.Slots[slot.ID] = slot

	// Sólo los contenedores conservan estructura; el resto ya capturó su
	// contenido como texto o HTML crudo.
	switch slot.Type {
	case domain.SlotContainer, domain.SlotGrid, domain.SlotFlex:
		childCol := 0
		sel.Children().Each(func(_ int, child *goquery.Selection) {
			if im.importNode(child, cfg, slot.ID, childCol, counter) {
				childCol++
			}
		})
	}
	return true
}

func containerType(class string) domain.SlotType {
	for _, tok := range strings.Fields(class) {
		switch tok {
		case "grid":
			return domain.SlotGrid
		case "flex":
			return domain.SlotFlex
		}
	}
	return domain.SlotContainer
}

func nextID(counter map[string]int, kind string) string {
	counter[kind]++
	return fmt.Sprintf("%s-%d", kind, counter[kind])
}
