package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/vitrina/internal/adapters/htmlout"
	"github.com/phenrril/vitrina/internal/adapters/importer"
	"github.com/phenrril/vitrina/internal/domain"
	"github.com/phenrril/vitrina/internal/usecase"
)

const sessionCookie = "vitrina_sid"

type Server struct {
	mux         *http.ServeMux
	pages       *usecase.PageUC
	experiments *usecase.ExperimentUC
	importer    *importer.HTMLImporter
	storeID     uuid.UUID

	// contexto demo del editor, cargado por planilla (en memoria)
	mu       sync.RWMutex
	demoData map[string]any
}

func New(pages *usecase.PageUC, experiments *usecase.ExperimentUC, storeID uuid.UUID) http.Handler {
	s := &Server{
		mux:         http.NewServeMux(),
		pages:       pages,
		experiments: experiments,
		importer:    importer.NewHTMLImporter(),
		storeID:     storeID,
	}
	s.routes()
	return Chain(s.mux,
		RateLimit(120),
		RequestID,
		Recovery,
		Logging,
	)
}

func (s *Server) routes() {
	s.mux.Handle("/public/", http.StripPrefix("/public/", http.FileServer(http.Dir("public"))))

	s.mux.HandleFunc("/", s.handleStorefront)
	s.mux.HandleFunc("/p/", s.handleStorefront)

	s.mux.HandleFunc("/api/pages", s.apiPages)
	s.mux.HandleFunc("/api/pages/", s.apiPageByType)

	s.mux.HandleFunc("/api/experiments", s.apiExperiments)
	s.mux.HandleFunc("/api/experiments/", s.apiExperimentByID)

	s.mux.HandleFunc("/api/import/html", s.apiImportHTML)
	s.mux.HandleFunc("/api/import/catalog", s.apiImportCatalog)

	s.mux.HandleFunc("/healthz", s.handleHealth)
}

// handleStorefront renderiza la página publicada como HTML. "/" es la home;
// el resto de los tipos de página viven bajo /p/{pageType}.
func (s *Server) handleStorefront(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	pageType := "home"
	if strings.HasPrefix(r.URL.Path, "/p/") {
		pageType = strings.Trim(strings.TrimPrefix(r.URL.Path, "/p/"), "/")
	} else if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if pageType == "" {
		http.Error(w, "pageType", 400)
		return
	}

	tree, err := s.pages.RenderStorefront(r.Context(), s.storeID, pageType, s.sessionID(w, r), s.demoContext())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("pageType", pageType).Msg("render storefront")
		http.Error(w, "render", 500)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = htmlout.Write(w, tree)
}

func (s *Server) apiPages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	types, err := s.pages.PageTypes(r.Context(), s.storeID)
	if err != nil {
		http.Error(w, "listar", 500)
		return
	}
	writeJSON(w, 200, map[string]any{"pageTypes": types})
}

// apiPageByType despacha las operaciones de una página:
//
//	GET  /api/pages/{pageType}/draft
//	PUT  /api/pages/{pageType}/draft
//	POST /api/pages/{pageType}/preview
//	POST /api/pages/{pageType}/publish
func (s *Server) apiPageByType(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/pages/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	pageType, op := parts[0], parts[1]

	switch {
	case op == "draft" && r.Method == http.MethodGet:
		s.getDraft(w, r, pageType)
	case op == "draft" && r.Method == http.MethodPut:
		s.putDraft(w, r, pageType)
	case op == "preview" && r.Method == http.MethodPost:
		s.postPreview(w, r, pageType)
	case op == "publish" && r.Method == http.MethodPost:
		s.postPublish(w, r, pageType)
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) getDraft(w http.ResponseWriter, r *http.Request, pageType string) {
	cfg, err := s.pages.Draft(r.Context(), s.storeID, pageType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "draft", 404)
			return
		}
		http.Error(w, "draft", 500)
		return
	}
	writeJSON(w, 200, cfg)
}

func (s *Server) putDraft(w http.ResponseWriter, r *http.Request, pageType string) {
	var cfg domain.PageConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "json", 400)
		return
	}
	cfg.StoreID = s.storeID
	cfg.PageType = pageType
	if err := s.pages.SaveDraft(r.Context(), &cfg); err != nil {
		if errors.Is(err, domain.ErrCyclicParentage) || errors.Is(err, domain.ErrOrphanSlot) ||
			errors.Is(err, domain.ErrDuplicateCol) || errors.Is(err, domain.ErrSlotIDMismatch) {
			http.Error(w, err.Error(), 422)
			return
		}
		http.Error(w, "guardar", 500)
		return
	}
	writeJSON(w, 200, cfg)
}

type previewRequest struct {
	Viewport  string                `json:"viewport"`
	ViewMode  string                `json:"viewMode"`
	VariantID string                `json:"variantId"`
	Variant   *domain.VariantConfig `json:"variant"`
	Data      map[string]any        `json:"data"`
}

func (s *Server) postPreview(w http.ResponseWriter, r *http.Request, pageType string) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "json", 400)
		return
	}

	opts := usecase.PreviewOptions{
		Viewport: domain.Viewport(req.Viewport),
		ViewMode: req.ViewMode,
		Data:     req.Data,
	}
	if opts.Data == nil {
		opts.Data = s.demoContext()
	}
	if req.Variant != nil {
		opts.Variants = []domain.Variant{{Config: *req.Variant}}
	} else if req.VariantID != "" {
		variant, err := s.lookupVariant(r, pageType, req.VariantID)
		if err != nil {
			http.Error(w, "variant", 404)
			return
		}
		opts.Variants = []domain.Variant{*variant}
	}

	tree, err := s.pages.RenderPreview(r.Context(), s.storeID, pageType, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "draft", 404)
			return
		}
		http.Error(w, "preview", 500)
		return
	}
	writeJSON(w, 200, tree)
}

func (s *Server) lookupVariant(r *http.Request, pageType, id string) (*domain.Variant, error) {
	vid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	exps, err := s.experiments.ListByPage(r.Context(), s.storeID, pageType)
	if err != nil {
		return nil, err
	}
	for i := range exps {
		for j := range exps[i].Variants {
			if exps[i].Variants[j].ID == vid {
				return &exps[i].Variants[j], nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Server) postPublish(w http.ResponseWriter, r *http.Request, pageType string) {
	cfg, err := s.pages.Publish(r.Context(), s.storeID, pageType)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "draft", 404)
			return
		}
		http.Error(w, "publicar", 500)
		return
	}
	writeJSON(w, 200, cfg)
}

func (s *Server) apiExperiments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		pageType := r.URL.Query().Get("pageType")
		if pageType == "" {
			http.Error(w, "pageType", 400)
			return
		}
		list, err := s.experiments.ListByPage(r.Context(), s.storeID, pageType)
		if err != nil {
			http.Error(w, "listar", 500)
			return
		}
		writeJSON(w, 200, map[string]any{"items": list})
	case http.MethodPost:
		var e domain.Experiment
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "json", 400)
			return
		}
		e.StoreID = s.storeID
		if err := s.experiments.Create(r.Context(), &e); err != nil {
			http.Error(w, err.Error(), 422)
			return
		}
		writeJSON(w, 201, e)
	default:
		http.Error(w, "method", 405)
	}
}

// apiExperimentByID atiende /api/experiments/{id} y las acciones
// /api/experiments/{id}/start y /stop.
func (s *Server) apiExperimentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/experiments/")
	parts := strings.SplitN(rest, "/", 2)
	id, err := uuid.Parse(parts[0])
	if err != nil {
		http.Error(w, "id", 400)
		return
	}

	if len(parts) == 2 {
		if r.Method != http.MethodPost {
			http.Error(w, "method", 405)
			return
		}
		switch parts[1] {
		case "start":
			err = s.experiments.Start(r.Context(), id)
		case "stop":
			err = s.experiments.Stop(r.Context(), id)
		default:
			http.NotFound(w, r)
			return
		}
		if err != nil {
			s.experimentError(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true})
		return
	}

	switch r.Method {
	case http.MethodGet:
		e, err := s.experiments.Get(r.Context(), id)
		if err != nil {
			s.experimentError(w, err)
			return
		}
		writeJSON(w, 200, e)
	case http.MethodPut:
		var e domain.Experiment
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "json", 400)
			return
		}
		e.ID = id
		e.StoreID = s.storeID
		if err := s.experiments.Update(r.Context(), &e); err != nil {
			s.experimentError(w, err)
			return
		}
		writeJSON(w, 200, e)
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) experimentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "experimento", 404)
	case errors.Is(err, usecase.ErrExperimentRunning):
		http.Error(w, err.Error(), 409)
	default:
		http.Error(w, err.Error(), 422)
	}
}

// apiImportHTML convierte un documento HTML en el draft de la página. El
// body es el HTML crudo; pageType viene por query.
func (s *Server) apiImportHTML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	pageType := r.URL.Query().Get("pageType")
	if pageType == "" {
		http.Error(w, "pageType", 400)
		return
	}
	cfg, err := s.importer.Import(r.Body, s.storeID, pageType)
	if err != nil {
		http.Error(w, err.Error(), 422)
		return
	}
	if err := s.pages.SaveDraft(r.Context(), cfg); err != nil {
		http.Error(w, "guardar", 500)
		return
	}
	writeJSON(w, 201, cfg)
}

// apiImportCatalog carga la planilla de catálogo que alimenta los datos demo
// del editor. Queda en memoria del proceso.
func (s *Server) apiImportCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	ctx, err := importer.LoadCatalogContext(r.Body)
	if err != nil {
		http.Error(w, err.Error(), 422)
		return
	}
	s.mu.Lock()
	s.demoData = ctx
	s.mu.Unlock()
	writeJSON(w, 200, ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"status": "ok"})
}

func (s *Server) demoContext() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demoData
}

// sessionID lee o crea la cookie de sesión que fija la asignación de
// variantes de la visita.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60 * 60 * 24 * 30,
	})
	return sid
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
