package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/vitrina/internal/domain"
)

var ErrExperimentRunning = errors.New("experimento en curso: la configuración de variantes es inmutable")

type ExperimentUC struct {
	Experiments domain.ExperimentRepo
	Cache       domain.TreeCache
}

func (uc *ExperimentUC) Create(ctx context.Context, e *domain.Experiment) error {
	if e == nil {
		return errors.New("experimento nil")
	}
	if e.PageType == "" {
		return errors.New("pageType vacío")
	}
	if len(e.Variants) == 0 {
		return errors.New("experimento sin variantes")
	}
	for i := range e.Variants {
		if e.Variants[i].Weight <= 0 {
			return errors.New("peso de variante debe ser positivo")
		}
		if e.Variants[i].ID == uuid.Nil {
			e.Variants[i].ID = uuid.New()
		}
	}
	if err := validateVariantTrees(e); err != nil {
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	for i := range e.Variants {
		e.Variants[i].ExperimentID = e.ID
	}
	e.Status = domain.ExperimentDraft
	return uc.Experiments.Save(ctx, e)
}

// Update rechaza cambios de configuración sobre un experimento corriendo:
// mutar variantes en vivo rompe la validez estadística del test.
func (uc *ExperimentUC) Update(ctx context.Context, e *domain.Experiment) error {
	if e == nil || e.ID == uuid.Nil {
		return errors.New("experimento id")
	}
	current, err := uc.Experiments.FindByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if current.Status == domain.ExperimentRunning {
		return ErrExperimentRunning
	}
	if err := validateVariantTrees(e); err != nil {
		return err
	}
	return uc.Experiments.Save(ctx, e)
}

// validateVariantTrees corre los invariantes de árbol sobre cada
// slot_configuration declarada: ese árbol reemplaza entero al base durante el
// merge, así que se valida al guardar, igual que un draft.
func validateVariantTrees(e *domain.Experiment) error {
	for i := range e.Variants {
		sc := e.Variants[i].Config.SlotConfiguration
		if sc == nil {
			continue
		}
		tree := &domain.PageConfig{
			StoreID:  e.StoreID,
			PageType: e.PageType,
			Slots:    sc,
		}
		if err := domain.ValidateTree(tree); err != nil {
			return err
		}
	}
	return nil
}

func (uc *ExperimentUC) Start(ctx context.Context, id uuid.UUID) error {
	e, err := uc.Experiments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Status == domain.ExperimentRunning {
		return nil
	}
	now := time.Now()
	e.Status = domain.ExperimentRunning
	e.StartedAt = &now
	e.StoppedAt = nil
	if err := uc.Experiments.Save(ctx, e); err != nil {
		return err
	}
	uc.bustPage(e)
	return nil
}

func (uc *ExperimentUC) Stop(ctx context.Context, id uuid.UUID) error {
	e, err := uc.Experiments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if e.Status != domain.ExperimentRunning {
		return nil
	}
	now := time.Now()
	e.Status = domain.ExperimentStopped
	e.StoppedAt = &now
	if err := uc.Experiments.Save(ctx, e); err != nil {
		return err
	}
	uc.bustPage(e)
	return nil
}

func (uc *ExperimentUC) ListByPage(ctx context.Context, storeID uuid.UUID, pageType string) ([]domain.Experiment, error) {
	return uc.Experiments.ListByPage(ctx, storeID, pageType)
}

func (uc *ExperimentUC) Get(ctx context.Context, id uuid.UUID) (*domain.Experiment, error) {
	return uc.Experiments.FindByID(ctx, id)
}

// bustPage invalida el árbol efectivo cacheado de la página del experimento:
// arrancar o frenar un test cambia el conjunto de variantes activas.
func (uc *ExperimentUC) bustPage(e *domain.Experiment) {
	if uc.Cache != nil {
		uc.Cache.InvalidatePage(e.StoreID, e.PageType)
	}
}
