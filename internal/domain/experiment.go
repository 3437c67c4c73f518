package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExperimentStatus string

const (
	ExperimentDraft   ExperimentStatus = "draft"
	ExperimentRunning ExperimentStatus = "running"
	ExperimentStopped ExperimentStatus = "stopped"
)

// Experiment es un test A/B sobre una página de una tienda. Las variantes se
// asignan por sesión según peso; el orden de StartedAt define la prioridad de
// aplicación cuando hay más de un experimento activo.
type Experiment struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID   uuid.UUID        `gorm:"type:uuid;index:idx_experiments_scope" json:"storeId"`
	PageType  string           `gorm:"size:60;index:idx_experiments_scope" json:"pageType"`
	Name      string           `gorm:"size:140" json:"name"`
	Status    ExperimentStatus `gorm:"type:varchar(12);index" json:"status"`
	Variants  []Variant        `json:"variants"`
	StartedAt *time.Time       `json:"startedAt,omitempty"`
	StoppedAt *time.Time       `json:"stoppedAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Variant es un brazo del experimento. Config no se muta después de que el
// experimento arranca; eso lo cuida el usecase, no el motor de merge.
type Variant struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ExperimentID uuid.UUID     `gorm:"type:uuid;index" json:"experimentId"`
	Name         string        `gorm:"size:140" json:"name"`
	Weight       int           `gorm:"default:50" json:"weight"`
	IsControl    bool          `gorm:"default:false" json:"is_control"`
	Config       VariantConfig `gorm:"type:jsonb;serializer:json" json:"config"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// VariantConfig agrupa las cinco categorías de override, de mayor a menor
// precedencia. Cualquier campo puede faltar.
type VariantConfig struct {
	// Reemplazo completo del árbol base.
	SlotConfiguration map[string]*Slot `json:"slot_configuration,omitempty"`
	// Parche por slot: props se mergea clave a clave, el resto reemplaza.
	SlotOverrides map[string]map[string]any `json:"slot_overrides,omitempty"`
	// Parche que sólo toca props del slot.
	ComponentProps map[string]map[string]any `json:"component_props,omitempty"`
	// Parche de styles/className por slot.
	StyleOverrides map[string]map[string]any `json:"style_overrides,omitempty"`
	// Flags a nivel de árbol, no de slot.
	FeatureFlags map[string]any `json:"feature_flags,omitempty"`
}

// IsEmpty indica que la variante no declara ningún override (control puro).
func (vc VariantConfig) IsEmpty() bool {
	return vc.SlotConfiguration == nil && vc.SlotOverrides == nil &&
		vc.ComponentProps == nil && vc.StyleOverrides == nil && vc.FeatureFlags == nil
}
