package assign

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/phenrril/vitrina/internal/domain"
)

type stubExperimentRepo struct{ active []domain.Experiment }

func (r *stubExperimentRepo) FindByID(_ context.Context, _ uuid.UUID) (*domain.Experiment, error) {
	return nil, domain.ErrNotFound
}

func (r *stubExperimentRepo) ListByPage(_ context.Context, _ uuid.UUID, _ string) ([]domain.Experiment, error) {
	return r.active, nil
}

func (r *stubExperimentRepo) ActiveByPage(_ context.Context, _ uuid.UUID, _ string) ([]domain.Experiment, error) {
	return r.active, nil
}

func (r *stubExperimentRepo) Save(_ context.Context, _ *domain.Experiment) error { return nil }

func experimentFixture() domain.Experiment {
	id := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	return domain.Experiment{
		ID:     id,
		Status: domain.ExperimentRunning,
		Variants: []domain.Variant{
			{ID: uuid.MustParse("44444444-4444-4444-4444-444444444444"), ExperimentID: id, Name: "control", Weight: 50, IsControl: true},
			{ID: uuid.MustParse("55555555-5555-5555-5555-555555555555"), ExperimentID: id, Name: "explore", Weight: 50},
		},
	}
}

func TestAssignIsDeterministicPerSession(t *testing.T) {
	a := New(&stubExperimentRepo{active: []domain.Experiment{experimentFixture()}})
	storeID := uuid.New()

	first, err := a.Assign(context.Background(), storeID, "home", "sess-abc")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("asignadas %d variantes, want 1", len(first))
	}
	for i := 0; i < 20; i++ {
		again, _ := a.Assign(context.Background(), storeID, "home", "sess-abc")
		if again[0].ID != first[0].ID {
			t.Fatal("la misma sesión cambió de brazo entre requests")
		}
	}
}

func TestAssignSpreadsSessionsAcrossArms(t *testing.T) {
	a := New(&stubExperimentRepo{active: []domain.Experiment{experimentFixture()}})
	storeID := uuid.New()

	seen := map[uuid.UUID]int{}
	for i := 0; i < 200; i++ {
		got, _ := a.Assign(context.Background(), storeID, "home", uuid.NewString())
		seen[got[0].ID]++
	}
	if len(seen) != 2 {
		t.Fatalf("200 sesiones cayeron en %d brazos, want 2", len(seen))
	}
	for id, n := range seen {
		// 50/50 con margen amplio; sólo detecta un bucketing roto.
		if n < 40 {
			t.Errorf("brazo %s recibió %d de 200 sesiones", id, n)
		}
	}
}

func TestAssignOneVariantPerExperimentInStartOrder(t *testing.T) {
	e1 := experimentFixture()
	e2 := experimentFixture()
	e2.ID = uuid.MustParse("66666666-6666-6666-6666-666666666666")
	e2.Variants = []domain.Variant{
		{ID: uuid.MustParse("77777777-7777-7777-7777-777777777777"), ExperimentID: e2.ID, Name: "solo", Weight: 100},
	}
	a := New(&stubExperimentRepo{active: []domain.Experiment{e1, e2}})

	got, err := a.Assign(context.Background(), uuid.New(), "home", "sess-1")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("variantes = %d, want una por experimento", len(got))
	}
	if got[0].ExperimentID == got[1].ExperimentID {
		t.Error("deben venir de experimentos distintos")
	}
	if got[1].ID != e2.Variants[0].ID {
		t.Error("el orden de los experimentos activos debe respetarse")
	}
}
