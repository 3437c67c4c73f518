package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type PageConfigRepo interface {
	FindPublished(ctx context.Context, storeID uuid.UUID, pageType string) (*PageConfig, error)
	FindDraft(ctx context.Context, storeID uuid.UUID, pageType string) (*PageConfig, error)
	Save(ctx context.Context, cfg *PageConfig) error
	// Publish pisa (o crea) el registro published con una copia del draft y
	// devuelve la copia publicada.
	Publish(ctx context.Context, storeID uuid.UUID, pageType string) (*PageConfig, error)
	ListPageTypes(ctx context.Context, storeID uuid.UUID) ([]string, error)
}

type ExperimentRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Experiment, error)
	ListByPage(ctx context.Context, storeID uuid.UUID, pageType string) ([]Experiment, error)
	// ActiveByPage devuelve los experimentos running en orden de StartedAt
	// ascendente, con sus variantes precargadas.
	ActiveByPage(ctx context.Context, storeID uuid.UUID, pageType string) ([]Experiment, error)
	Save(ctx context.Context, e *Experiment) error
}

// VariantAssigner resuelve, para una sesión, la lista ordenada de variantes
// asignadas sobre una página. El motor nunca hace bucketing; eso vive en un
// adapter.
type VariantAssigner interface {
	Assign(ctx context.Context, storeID uuid.UUID, pageType, sessionID string) ([]Variant, error)
}

// TreeCache es el cache read-through del árbol efectivo por
// (página, conjunto de variantes). Se invalida al publicar; no hay eviction.
type TreeCache interface {
	Get(key string) (*PageConfig, bool)
	Set(key string, cfg *PageConfig)
	InvalidatePage(storeID uuid.UUID, pageType string)
}
