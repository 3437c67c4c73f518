package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/phenrril/vitrina/internal/domain"
)

type fakeExperimentRepo struct {
	byID map[uuid.UUID]*domain.Experiment
}

func (r *fakeExperimentRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Experiment, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeExperimentRepo) ListByPage(_ context.Context, _ uuid.UUID, _ string) ([]domain.Experiment, error) {
	return nil, nil
}

func (r *fakeExperimentRepo) ActiveByPage(_ context.Context, _ uuid.UUID, _ string) ([]domain.Experiment, error) {
	return nil, nil
}

func (r *fakeExperimentRepo) Save(_ context.Context, e *domain.Experiment) error {
	if r.byID == nil {
		r.byID = map[uuid.UUID]*domain.Experiment{}
	}
	cp := *e
	r.byID[e.ID] = &cp
	return nil
}

func newExperiment() *domain.Experiment {
	return &domain.Experiment{
		StoreID:  uuid.New(),
		PageType: "home",
		Name:     "hero cta",
		Variants: []domain.Variant{
			{Name: "control", Weight: 50, IsControl: true},
			{Name: "explore", Weight: 50, Config: domain.VariantConfig{
				SlotOverrides: map[string]map[string]any{
					"hero": {"props": map[string]any{"text": "Explore"}},
				},
			}},
		},
	}
}

func TestCreateExperimentValidations(t *testing.T) {
	uc := &ExperimentUC{Experiments: &fakeExperimentRepo{}}

	if err := uc.Create(context.Background(), &domain.Experiment{PageType: "home"}); err == nil {
		t.Error("experimento sin variantes debería rechazarse")
	}

	bad := newExperiment()
	bad.Variants[0].Weight = 0
	if err := uc.Create(context.Background(), bad); err == nil {
		t.Error("peso cero debería rechazarse")
	}

	good := newExperiment()
	if err := uc.Create(context.Background(), good); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if good.ID == uuid.Nil {
		t.Error("Create debe asignar id")
	}
	for _, v := range good.Variants {
		if v.ExperimentID != good.ID {
			t.Error("las variantes deben quedar colgadas del experimento")
		}
		if v.ID == uuid.Nil {
			t.Error("cada variante recibe id")
		}
	}
	if good.Status != domain.ExperimentDraft {
		t.Errorf("status inicial = %s", good.Status)
	}
}

func TestCreateRejectsInvalidSlotConfiguration(t *testing.T) {
	uc := &ExperimentUC{Experiments: &fakeExperimentRepo{}}

	// Un slot_configuration reemplaza el árbol entero en el merge, así que
	// pasa por los mismos invariantes que un draft al guardarse.
	cyclic := newExperiment()
	cyclic.Variants[1].Config = domain.VariantConfig{
		SlotConfiguration: map[string]*domain.Slot{
			"a": {ID: "a", ParentID: "b"},
			"b": {ID: "b", ParentID: "a"},
		},
	}
	if err := uc.Create(context.Background(), cyclic); !errors.Is(err, domain.ErrCyclicParentage) {
		t.Errorf("árbol cíclico en la variante: err = %v", err)
	}

	dup := newExperiment()
	dup.Variants[1].Config = domain.VariantConfig{
		SlotConfiguration: map[string]*domain.Slot{
			"root": {ID: "root", Type: domain.SlotContainer},
			"a":    {ID: "a", ParentID: "root", Position: domain.Position{Col: 0}},
			"b":    {ID: "b", ParentID: "root", Position: domain.Position{Col: 0}},
		},
	}
	if err := uc.Create(context.Background(), dup); !errors.Is(err, domain.ErrDuplicateCol) {
		t.Errorf("cols repetidas en la variante: err = %v", err)
	}
}

func TestUpdateRejectsInvalidSlotConfiguration(t *testing.T) {
	repo := &fakeExperimentRepo{}
	uc := &ExperimentUC{Experiments: repo}

	e := newExperiment()
	if err := uc.Create(context.Background(), e); err != nil {
		t.Fatalf("Create: %v", err)
	}

	e.Variants[1].Config = domain.VariantConfig{
		SlotConfiguration: map[string]*domain.Slot{
			"a": {ID: "a", ParentID: "a"},
		},
	}
	if err := uc.Update(context.Background(), e); !errors.Is(err, domain.ErrCyclicParentage) {
		t.Errorf("Update con árbol cíclico: err = %v", err)
	}
}

func TestUpdateRunningExperimentRejected(t *testing.T) {
	repo := &fakeExperimentRepo{}
	cache := &fakeCache{}
	uc := &ExperimentUC{Experiments: repo, Cache: cache}

	e := newExperiment()
	if err := uc.Create(context.Background(), e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := uc.Start(context.Background(), e.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if cache.busts != 1 {
		t.Errorf("start debe invalidar el cache de la página, busts = %d", cache.busts)
	}

	e.Variants[1].Config.FeatureFlags = map[string]any{"x": true}
	err := uc.Update(context.Background(), e)
	if !errors.Is(err, ErrExperimentRunning) {
		t.Errorf("update en curso: err = %v", err)
	}

	if err := uc.Stop(context.Background(), e.ID); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := uc.Update(context.Background(), e); err != nil {
		t.Errorf("update con experimento frenado: %v", err)
	}
	if cache.busts != 2 {
		t.Errorf("stop también invalida, busts = %d", cache.busts)
	}
}
