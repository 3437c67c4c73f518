package engine

import (
	"github.com/mohae/deepcopy"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/phenrril/vitrina/internal/domain"
)

// Merge aplica la pila de variantes activas sobre el árbol base y devuelve el
// árbol efectivo. Ni el base ni las variantes se mutan: el resultado es una
// función pura de (base, variantes ordenadas), idempotente y cacheable por
// clave (página, conjunto de variantes).
//
// Precedencia, de mayor a menor:
//  1. slot_configuration: reemplazo completo del árbol. Gana la primera
//     variante asignada que lo declare; si hay más de una se loguea el
//     conflicto y las demás se ignoran.
//  2. slot_overrides: parche profundo por slot (props clave a clave, el
//     resto reemplaza el campo entero).
//  3. component_props: sólo props del slot.
//  4. style_overrides: sólo styles y className.
//  5. feature_flags: bolsa de flags a nivel árbol, last-write-wins.
//
// Las reglas 2-5 se aplican acumulando variante por variante en orden de
// asignación: para campos hoja que se pisan, gana la última aplicada.
func Merge(base *domain.PageConfig, variants []domain.Variant) *domain.PageConfig {
	out := base.Clone()
	if base.Slots != nil {
		out.Slots = deepcopy.Copy(base.Slots).(map[string]*domain.Slot)
	}
	if base.FeatureFlags != nil {
		out.FeatureFlags = deepcopy.Copy(base.FeatureFlags).(map[string]any)
	}

	full := fullReplacement(base, variants)
	if full != nil {
		out.Slots = deepcopy.Copy(full.Config.SlotConfiguration).(map[string]*domain.Slot)
	}

	for i := range variants {
		v := &variants[i]
		applySlotOverrides(out, v.Config.SlotOverrides)
		applyComponentProps(out, v.Config.ComponentProps)
		applyStyleOverrides(out, v.Config.StyleOverrides)
		if len(v.Config.FeatureFlags) > 0 {
			if out.FeatureFlags == nil {
				out.FeatureFlags = make(map[string]any, len(v.Config.FeatureFlags))
			}
			for k, val := range v.Config.FeatureFlags {
				out.FeatureFlags[k] = deepcopy.Copy(val)
			}
		}
	}
	return out
}

func fullReplacement(base *domain.PageConfig, variants []domain.Variant) *domain.Variant {
	var winner *domain.Variant
	for i := range variants {
		if variants[i].Config.SlotConfiguration == nil {
			continue
		}
		if winner == nil {
			winner = &variants[i]
			continue
		}
		log.Warn().
			Str("pageType", base.PageType).
			Str("storeId", base.StoreID.String()).
			Str("aplicada", winner.ID.String()).
			Str("ignorada", variants[i].ID.String()).
			Msg("más de una variante declara slot_configuration; gana la primera asignada")
	}
	return winner
}

func applySlotOverrides(cfg *domain.PageConfig, overrides map[string]map[string]any) {
	for slotID, patch := range overrides {
		slot, ok := cfg.Slots[slotID]
		if !ok {
			continue
		}
		applySlotPatch(slot, patch)
	}
}

// applySlotPatch mergea un parche parcial sobre un slot existente. Sólo
// props se mergea clave a clave; cualquier otro campo del parche reemplaza
// entero el campo del slot. Claves que no mapean a un campo van a metadata,
// que es la bolsa libre del slot.
func applySlotPatch(slot *domain.Slot, patch map[string]any) {
	for key, raw := range patch {
		switch key {
		case "content":
			slot.Content = cast.ToString(raw)
		case "className":
			slot.ClassName = cast.ToString(raw)
		case "styles":
			if m, err := cast.ToStringMapStringE(raw); err == nil {
				slot.Styles = copyStringMapValues(m)
			}
		case "props":
			if m, err := cast.ToStringMapE(raw); err == nil {
				slot.Props = mergeAnyMap(slot.Props, m)
			}
		case "metadata":
			if m, err := cast.ToStringMapE(raw); err == nil {
				slot.Metadata = deepcopy.Copy(m).(map[string]any)
			}
		case "viewModes":
			if vs, err := cast.ToStringSliceE(raw); err == nil {
				slot.ViewModes = vs
			}
		case "type":
			slot.Type = domain.SlotType(cast.ToString(raw))
		case "position":
			if m, err := cast.ToStringMapE(raw); err == nil {
				pos := domain.Position{Col: cast.ToInt(m["col"])}
				if span, ok := m["span"]; ok {
					if sm, err := cast.ToStringMapIntE(span); err == nil {
						pos.Span = sm
					}
				}
				slot.Position = pos
			}
		default:
			if slot.Metadata == nil {
				slot.Metadata = map[string]any{}
			}
			slot.Metadata[key] = deepcopy.Copy(raw)
		}
	}
}

func applyComponentProps(cfg *domain.PageConfig, props map[string]map[string]any) {
	for slotID, patch := range props {
		slot, ok := cfg.Slots[slotID]
		if !ok {
			continue
		}
		slot.Props = mergeAnyMap(slot.Props, patch)
		// Algunos componentes leen props desde metadata.props; se mantiene
		// en espejo para no romper configuraciones viejas.
		if slot.Metadata != nil {
			if mp, err := cast.ToStringMapE(slot.Metadata["props"]); err == nil && mp != nil {
				slot.Metadata["props"] = mergeAnyMap(mp, patch)
			}
		}
	}
}

func applyStyleOverrides(cfg *domain.PageConfig, overrides map[string]map[string]any) {
	for slotID, patch := range overrides {
		slot, ok := cfg.Slots[slotID]
		if !ok {
			continue
		}
		for key, raw := range patch {
			if key == "className" {
				slot.ClassName = cast.ToString(raw)
				continue
			}
			if slot.Styles == nil {
				slot.Styles = map[string]string{}
			}
			slot.Styles[key] = cast.ToString(raw)
		}
	}
}

// mergeAnyMap mergea clave a clave; cuando las dos puntas son mapas anidados
// baja un nivel, si no la del parche pisa. Nunca comparte referencias con el
// parche.
func mergeAnyMap(dst map[string]any, patch map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(patch))
	}
	for k, v := range patch {
		if sub, ok := v.(map[string]any); ok {
			if cur, ok := dst[k].(map[string]any); ok {
				dst[k] = mergeAnyMap(cur, sub)
				continue
			}
		}
		dst[k] = deepcopy.Copy(v)
	}
	return dst
}

func copyStringMapValues(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
