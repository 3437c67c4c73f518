// Package assign resuelve qué variante de cada experimento activo le toca a
// una sesión. El bucketing es determinístico: la misma sesión cae siempre en
// el mismo brazo mientras el experimento no cambie, sin guardar estado.
package assign

import (
	"context"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/phenrril/vitrina/internal/domain"
)

type Assigner struct {
	Experiments domain.ExperimentRepo
}

func New(experiments domain.ExperimentRepo) *Assigner {
	return &Assigner{Experiments: experiments}
}

// Assign devuelve la lista ordenada de variantes asignadas a la sesión sobre
// una página: un brazo por experimento running, en orden de arranque de los
// experimentos. Ese orden es la prioridad con la que después se aplican los
// overrides en el merge.
func (a *Assigner) Assign(ctx context.Context, storeID uuid.UUID, pageType, sessionID string) ([]domain.Variant, error) {
	experiments, err := a.Experiments.ActiveByPage(ctx, storeID, pageType)
	if err != nil {
		return nil, err
	}
	var out []domain.Variant
	for i := range experiments {
		if v := pick(&experiments[i], sessionID); v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

// pick elige el brazo por hash de (sesión, experimento) contra los pesos
// acumulados. Incluir el id del experimento en el hash descorrelaciona los
// buckets entre experimentos de la misma página.
func pick(e *domain.Experiment, sessionID string) *domain.Variant {
	if len(e.Variants) == 0 {
		return nil
	}
	total := 0
	for i := range e.Variants {
		if e.Variants[i].Weight > 0 {
			total += e.Variants[i].Weight
		}
	}
	if total == 0 {
		return nil
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	_, _ = h.Write([]byte(e.ID.String()))
	bucket := int(h.Sum32() % uint32(total))

	acc := 0
	for i := range e.Variants {
		if e.Variants[i].Weight <= 0 {
			continue
		}
		acc += e.Variants[i].Weight
		if bucket < acc {
			return &e.Variants[i]
		}
	}
	return &e.Variants[len(e.Variants)-1]
}
