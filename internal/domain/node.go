package domain

// RenderMode distingue la salida del editor de la del storefront. El
// dispatcher sólo propaga el flag; cada renderer decide qué hacer con él.
type RenderMode string

const (
	ModeStorefront RenderMode = "storefront"
	ModeEditor     RenderMode = "editor"
)

// Viewport simulado del editor. En storefront queda vacío y las media queries
// reales deciden el layout.
type Viewport string

const (
	ViewportNone    Viewport = ""
	ViewportMobile  Viewport = "mobile"
	ViewportTablet  Viewport = "tablet"
	ViewportDesktop Viewport = "desktop"
)

// RenderNode es el único artefacto de salida del motor. SlotID y ParentID se
// conservan siempre para que la capa de drag/drop del editor pueda envolver
// cada nodo sin re-derivar la estructura.
type RenderNode struct {
	SlotID    string            `json:"slotId"`
	ParentID  string            `json:"parentId,omitempty"`
	Type      SlotType          `json:"type"`
	Tag       string            `json:"tag,omitempty"`
	Content   string            `json:"content,omitempty"`
	ClassName string            `json:"className,omitempty"`
	Styles    map[string]string `json:"styles,omitempty"`
	Props     map[string]any    `json:"props,omitempty"`
	// Placeholder marca el nodo visible que reemplaza a un componente sin
	// renderer registrado; Missing lleva el nombre que no se encontró.
	Placeholder bool          `json:"placeholder,omitempty"`
	Missing     string        `json:"missing,omitempty"`
	Children    []*RenderNode `json:"children,omitempty"`
}
