// Package htmlout serializa árboles de RenderNode a HTML. Es la salida del
// storefront server-side; el editor consume el árbol como JSON y no pasa por
// acá.
package htmlout

import (
	"html"
	"io"
	"sort"
	"strings"

	"github.com/phenrril/vitrina/internal/domain"
)

// voidTags no llevan cierre ni hijos.
var voidTags = map[string]bool{
	"img": true, "br": true, "hr": true, "input": true, "meta": true, "link": true,
}

// Write vuelca el árbol como HTML. El contenido de texto se escapa siempre;
// los slots html son la única vía de markup crudo y salen tal cual.
func Write(w io.Writer, node *domain.RenderNode) error {
	b := &strings.Builder{}
	writeNode(b, node)
	_, err := io.WriteString(w, b.String())
	return err
}

// String es Write sobre un buffer, para tests y para armar fragmentos.
func String(node *domain.RenderNode) string {
	b := &strings.Builder{}
	writeNode(b, node)
	return b.String()
}

func writeNode(b *strings.Builder, n *domain.RenderNode) {
	if n == nil {
		return
	}
	tag := n.Tag
	if tag == "" {
		tag = "div"
	}

	b.WriteString("<")
	b.WriteString(tag)
	writeAttr(b, "data-slot-id", n.SlotID)
	writeAttr(b, "class", n.ClassName)
	writeAttr(b, "style", inlineStyle(n.Styles))
	if n.Type == domain.SlotImage {
		writeAttr(b, "src", propString(n, "src"))
		writeAttr(b, "alt", propString(n, "alt"))
	}
	if tag == "a" {
		writeAttr(b, "href", propString(n, "href"))
	}

	if voidTags[tag] {
		b.WriteString(">")
		return
	}
	b.WriteString(">")

	if n.Content != "" {
		if n.Type == domain.SlotHTML {
			b.WriteString(n.Content)
		} else {
			b.WriteString(html.EscapeString(n.Content))
		}
	}
	for _, child := range n.Children {
		writeNode(b, child)
	}

	b.WriteString("</")
	b.WriteString(tag)
	b.WriteString(">")
}

func writeAttr(b *strings.Builder, name, val string) {
	if val == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(val))
	b.WriteString(`"`)
}

// inlineStyle arma el atributo style con claves ordenadas para que la salida
// sea estable entre renders.
func inlineStyle(styles map[string]string) string {
	if len(styles) == 0 {
		return ""
	}
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+styles[k])
	}
	return strings.Join(parts, ";")
}

func propString(n *domain.RenderNode, key string) string {
	if n.Props == nil {
		return ""
	}
	if s, ok := n.Props[key].(string); ok {
		return s
	}
	return ""
}
