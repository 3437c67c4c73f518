package domain

type SlotType string

const (
	SlotText      SlotType = "text"
	SlotButton    SlotType = "button"
	SlotImage     SlotType = "image"
	SlotComponent SlotType = "component"
	SlotContainer SlotType = "container"
	SlotGrid      SlotType = "grid"
	SlotFlex      SlotType = "flex"
	SlotHTML      SlotType = "html"
	SlotCMS       SlotType = "cms"
)

// Position ubica un slot entre sus hermanos. Col define el orden total dentro
// del padre; Span guarda el ancho de columnas por breakpoint ("mobile",
// "tablet", "desktop").
type Position struct {
	Col  int            `json:"col"`
	Span map[string]int `json:"span,omitempty"`
}

// Slot es un nodo del árbol de layout de una página. ParentID vacío marca la
// raíz; los ids son únicos dentro de una PageConfig, no globales.
type Slot struct {
	ID        string            `json:"id"`
	Type      SlotType          `json:"type"`
	Content   string            `json:"content,omitempty"`
	ClassName string            `json:"className,omitempty"`
	Styles    map[string]string `json:"styles,omitempty"`
	Props     map[string]any    `json:"props,omitempty"`
	ParentID  string            `json:"parentId,omitempty"`
	Position  Position          `json:"position"`
	ViewModes []string          `json:"viewModes,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
}

// ComponentName devuelve el nombre de componente declarado en metadata para
// slots de tipo component.
func (s *Slot) ComponentName() string {
	if s.Metadata == nil {
		return ""
	}
	if name, ok := s.Metadata["component"].(string); ok {
		return name
	}
	return ""
}

// HTMLTag devuelve el tag declarado en metadata (slots de texto), o el default.
func (s *Slot) HTMLTag(def string) string {
	if s.Metadata != nil {
		if tag, ok := s.Metadata["htmlTag"].(string); ok && tag != "" {
			return tag
		}
	}
	return def
}

// RendersInViewMode decide si el slot participa del modo de vista activo.
// Sin restricción declarada, el slot siempre se renderiza.
func (s *Slot) RendersInViewMode(mode string) bool {
	if len(s.ViewModes) == 0 {
		return true
	}
	if mode == "" {
		mode = "default"
	}
	for _, m := range s.ViewModes {
		if m == mode {
			return true
		}
	}
	return false
}
