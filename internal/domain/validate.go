package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCyclicParentage = errors.New("árbol de slots con ciclo de parentId")
	ErrOrphanSlot      = errors.New("parentId no resuelve a un slot del árbol")
	ErrDuplicateCol    = errors.New("position.col duplicada entre hermanos")
	ErrSlotIDMismatch  = errors.New("id de slot no coincide con su clave en el árbol")
)

// ValidateTree rechaza árboles inválidos al momento de cargar o guardar. El
// motor de render asume entrada acíclica y no vuelve a chequear nada de esto;
// un árbol que pasa por acá nunca falla a mitad de render.
func ValidateTree(cfg *PageConfig) error {
	if cfg == nil || len(cfg.Slots) == 0 {
		return nil
	}
	for id, s := range cfg.Slots {
		if s == nil {
			return fmt.Errorf("slot %q: %w", id, ErrSlotIDMismatch)
		}
		if s.ID != id {
			return fmt.Errorf("slot %q declara id %q: %w", id, s.ID, ErrSlotIDMismatch)
		}
		if s.ParentID != "" {
			if _, ok := cfg.Slots[s.ParentID]; !ok {
				return fmt.Errorf("slot %q -> %q: %w", id, s.ParentID, ErrOrphanSlot)
			}
		}
		if s.Position.Col < 0 {
			return fmt.Errorf("slot %q: position.col negativa", id)
		}
	}

	// Ciclos: subir por parentId no puede visitar dos veces el mismo slot.
	for id := range cfg.Slots {
		seen := map[string]bool{}
		cur := id
		for cur != "" {
			if seen[cur] {
				return fmt.Errorf("slot %q: %w", id, ErrCyclicParentage)
			}
			seen[cur] = true
			cur = cfg.Slots[cur].ParentID
		}
	}

	// Cols únicas por padre.
	cols := map[string]map[int]string{}
	for id, s := range cfg.Slots {
		byCol, ok := cols[s.ParentID]
		if !ok {
			byCol = map[int]string{}
			cols[s.ParentID] = byCol
		}
		if other, dup := byCol[s.Position.Col]; dup {
			return fmt.Errorf("slots %q y %q en col %d: %w", other, id, s.Position.Col, ErrDuplicateCol)
		}
		byCol[s.Position.Col] = id
	}
	return nil
}
