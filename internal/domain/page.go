package domain

import (
	"time"

	"github.com/google/uuid"
)

type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusPublished PageStatus = "published"
)

// PageConfig es el árbol de slots de una página, con alcance por tienda.
// Draft y published son dos registros con la misma forma y ciclos de vida
// separados: el editor sólo toca el draft, el storefront sólo lee published.
type PageConfig struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID      uuid.UUID        `gorm:"type:uuid;index:idx_page_configs_scope" json:"storeId"`
	PageType     string           `gorm:"size:60;index:idx_page_configs_scope" json:"pageType"`
	Status       PageStatus       `gorm:"type:varchar(12);index:idx_page_configs_scope" json:"status"`
	Slots        map[string]*Slot `gorm:"type:jsonb;serializer:json" json:"slots"`
	FeatureFlags map[string]any   `gorm:"type:jsonb;serializer:json" json:"featureFlags,omitempty"`
	Version      int              `gorm:"default:1" json:"version"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Clone copia el árbol sin compartir slots ni mapas con el original.
func (pc *PageConfig) Clone() *PageConfig {
	out := *pc
	out.Slots = make(map[string]*Slot, len(pc.Slots))
	for id, s := range pc.Slots {
		cp := *s
		cp.Styles = copyStringMap(s.Styles)
		cp.Props = copyAnyMap(s.Props)
		cp.Metadata = copyAnyMap(s.Metadata)
		if s.Position.Span != nil {
			cp.Position.Span = make(map[string]int, len(s.Position.Span))
			for k, v := range s.Position.Span {
				cp.Position.Span[k] = v
			}
		}
		if s.ViewModes != nil {
			cp.ViewModes = append([]string(nil), s.ViewModes...)
		}
		out.Slots[id] = &cp
	}
	out.FeatureFlags = copyAnyMap(pc.FeatureFlags)
	return &out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
