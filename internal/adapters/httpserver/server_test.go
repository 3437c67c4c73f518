package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/phenrril/vitrina/internal/adapters/cache"
	"github.com/phenrril/vitrina/internal/domain"
	"github.com/phenrril/vitrina/internal/engine"
	"github.com/phenrril/vitrina/internal/usecase"
)

type fakePageRepo struct {
	published map[string]*domain.PageConfig
	drafts    map[string]*domain.PageConfig
}

func newFakePageRepo() *fakePageRepo {
	return &fakePageRepo{
		published: map[string]*domain.PageConfig{},
		drafts:    map[string]*domain.PageConfig{},
	}
}

func (f *fakePageRepo) key(storeID uuid.UUID, pageType string) string {
	return storeID.String() + "/" + pageType
}

func (f *fakePageRepo) FindPublished(_ context.Context, storeID uuid.UUID, pageType string) (*domain.PageConfig, error) {
	if cfg, ok := f.published[f.key(storeID, pageType)]; ok {
		return cfg.Clone(), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakePageRepo) FindDraft(_ context.Context, storeID uuid.UUID, pageType string) (*domain.PageConfig, error) {
	if cfg, ok := f.drafts[f.key(storeID, pageType)]; ok {
		return cfg.Clone(), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakePageRepo) Save(_ context.Context, cfg *domain.PageConfig) error {
	k := f.key(cfg.StoreID, cfg.PageType)
	if cfg.Status == domain.PageStatusPublished {
		f.published[k] = cfg.Clone()
	} else {
		f.drafts[k] = cfg.Clone()
	}
	return nil
}

func (f *fakePageRepo) Publish(_ context.Context, storeID uuid.UUID, pageType string) (*domain.PageConfig, error) {
	k := f.key(storeID, pageType)
	draft, ok := f.drafts[k]
	if !ok {
		return nil, domain.ErrNotFound
	}
	pub := draft.Clone()
	pub.Status = domain.PageStatusPublished
	f.published[k] = pub
	return pub.Clone(), nil
}

func (f *fakePageRepo) ListPageTypes(_ context.Context, storeID uuid.UUID) ([]string, error) {
	out := []string{}
	for k := range f.published {
		if strings.HasPrefix(k, storeID.String()+"/") {
			out = append(out, strings.TrimPrefix(k, storeID.String()+"/"))
		}
	}
	return out, nil
}

type fakeExperimentRepo struct {
	byID map[uuid.UUID]*domain.Experiment
}

func (f *fakeExperimentRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Experiment, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeExperimentRepo) ListByPage(_ context.Context, storeID uuid.UUID, pageType string) ([]domain.Experiment, error) {
	out := []domain.Experiment{}
	for _, e := range f.byID {
		if e.StoreID == storeID && e.PageType == pageType {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeExperimentRepo) ActiveByPage(_ context.Context, storeID uuid.UUID, pageType string) ([]domain.Experiment, error) {
	out := []domain.Experiment{}
	for _, e := range f.byID {
		if e.StoreID == storeID && e.PageType == pageType && e.Status == domain.ExperimentRunning {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeExperimentRepo) Save(_ context.Context, e *domain.Experiment) error {
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

type noAssign struct{}

func (noAssign) Assign(context.Context, uuid.UUID, string, string) ([]domain.Variant, error) {
	return nil, nil
}

func homeTree(storeID uuid.UUID, status domain.PageStatus) *domain.PageConfig {
	return &domain.PageConfig{
		ID:       uuid.New(),
		StoreID:  storeID,
		PageType: "home",
		Status:   status,
		Slots: map[string]*domain.Slot{
			"hero": {
				ID:       "hero",
				Type:     domain.SlotText,
				Content:  "Bienvenido a {{store.name}}",
				Metadata: map[string]any{"htmlTag": "h1"},
			},
		},
	}
}

func newTestServer(t *testing.T) (http.Handler, *fakePageRepo, uuid.UUID) {
	t.Helper()
	storeID := uuid.New()
	pageRepo := newFakePageRepo()
	expRepo := &fakeExperimentRepo{byID: map[uuid.UUID]*domain.Experiment{}}
	mem := cache.NewMemory()

	pages := &usecase.PageUC{
		Pages:      pageRepo,
		Assigner:   noAssign{},
		Cache:      mem,
		Dispatcher: engine.NewDispatcher(engine.NewRegistry()),
	}
	exps := &usecase.ExperimentUC{Experiments: expRepo, Cache: mem}
	return New(pages, exps, storeID), pageRepo, storeID
}

func TestStorefrontRendersPublishedPage(t *testing.T) {
	h, repo, storeID := newTestServer(t)
	repo.published[repo.key(storeID, "home")] = homeTree(storeID, domain.PageStatusPublished)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "<h1") || !strings.Contains(rec.Body.String(), "Bienvenido a") {
		t.Errorf("body = %s", rec.Body.String())
	}
	// La cookie de sesión queda fijada para la asignación de variantes.
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("falta la cookie de sesión")
	}
}

func TestStorefrontUnknownPage404(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/p/inexistente", nil))
	if rec.Code != 404 {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestDraftRoundTripAndPublish(t *testing.T) {
	h, _, storeID := newTestServer(t)

	body, _ := json.Marshal(homeTree(storeID, domain.PageStatusDraft))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/pages/home/draft", strings.NewReader(string(body))))
	if rec.Code != 200 {
		t.Fatalf("PUT draft = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pages/home/draft", nil))
	if rec.Code != 200 {
		t.Fatalf("GET draft = %d", rec.Code)
	}
	var cfg domain.PageConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("draft json: %v", err)
	}
	if cfg.Slots["hero"] == nil {
		t.Fatal("el draft guardado perdió el slot hero")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pages/home/publish", nil))
	if rec.Code != 200 {
		t.Fatalf("publish = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != 200 {
		t.Errorf("storefront tras publicar = %d", rec.Code)
	}
}

func TestPutDraftRejectsInvalidTree(t *testing.T) {
	h, _, storeID := newTestServer(t)
	bad := homeTree(storeID, domain.PageStatusDraft)
	bad.Slots["hero"].ParentID = "hero"

	body, _ := json.Marshal(bad)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/pages/home/draft", strings.NewReader(string(body))))
	if rec.Code != 422 {
		t.Errorf("árbol cíclico = %d, want 422", rec.Code)
	}
}

func TestPreviewAppliesAdHocVariant(t *testing.T) {
	h, repo, storeID := newTestServer(t)
	repo.drafts[repo.key(storeID, "home")] = homeTree(storeID, domain.PageStatusDraft)

	reqBody := `{
		"viewport": "desktop",
		"variant": {"slot_overrides": {"hero": {"content": "Oferta relámpago"}}},
		"data": {"store": {"name": "NewMobile"}}
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pages/home/preview", strings.NewReader(reqBody)))
	if rec.Code != 200 {
		t.Fatalf("preview = %d, body %s", rec.Code, rec.Body.String())
	}
	var tree domain.RenderNode
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("tree json: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].Content != "Oferta relámpago" {
		t.Errorf("el override de la variante no llegó al render: %+v", tree.Children)
	}
}

func TestExperimentLifecycleOverHTTP(t *testing.T) {
	h, repo, storeID := newTestServer(t)
	repo.published[repo.key(storeID, "home")] = homeTree(storeID, domain.PageStatusPublished)

	create := `{
		"pageType": "home",
		"name": "hero copy",
		"variants": [
			{"name": "control", "weight": 50, "is_control": true, "config": {}},
			{"name": "b", "weight": 50, "config": {"slot_overrides": {"hero": {"content": "B"}}}}
		]
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/experiments", strings.NewReader(create)))
	if rec.Code != 201 {
		t.Fatalf("create = %d, body %s", rec.Code, rec.Body.String())
	}
	var exp domain.Experiment
	if err := json.Unmarshal(rec.Body.Bytes(), &exp); err != nil {
		t.Fatalf("experiment json: %v", err)
	}
	if exp.Status != domain.ExperimentDraft {
		t.Errorf("status inicial = %s", exp.Status)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/experiments/"+exp.ID.String()+"/start", nil))
	if rec.Code != 200 {
		t.Fatalf("start = %d, body %s", rec.Code, rec.Body.String())
	}

	// Arrancado, el update de variantes se rechaza.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/experiments/"+exp.ID.String(), strings.NewReader(create)))
	if rec.Code != 409 {
		t.Errorf("update corriendo = %d, want 409", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/experiments/"+exp.ID.String()+"/stop", nil))
	if rec.Code != 200 {
		t.Fatalf("stop = %d", rec.Code)
	}
}

func TestImportHTMLEndpoint(t *testing.T) {
	h, repo, storeID := newTestServer(t)

	html := `<html><body><section class="grid"><h2>Catálogo</h2><img src="/x.jpg"></section></body></html>`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/import/html?pageType=landing", strings.NewReader(html)))
	if rec.Code != 201 {
		t.Fatalf("import = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, ok := repo.drafts[repo.key(storeID, "landing")]; !ok {
		t.Error("el import no guardó el draft")
	}
}

func TestHealthz(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != 200 {
		t.Errorf("healthz = %d", rec.Code)
	}
}
