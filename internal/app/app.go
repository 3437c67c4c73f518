package app

import (
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/vitrina/internal/adapters/assign"
	"github.com/phenrril/vitrina/internal/adapters/cache"
	"github.com/phenrril/vitrina/internal/adapters/httpserver"
	"github.com/phenrril/vitrina/internal/adapters/repo/postgres"
	"github.com/phenrril/vitrina/internal/components"
	"github.com/phenrril/vitrina/internal/domain"
	"github.com/phenrril/vitrina/internal/engine"
	"github.com/phenrril/vitrina/internal/usecase"
)

// devStoreID es la tienda por defecto cuando STORE_ID no está seteado. En
// producción cada deploy lleva el id de su tienda.
const devStoreID = "00000000-0000-0000-0000-000000000001"

type App struct {
	DB           *gorm.DB
	StoreID      uuid.UUID
	PageUC       *usecase.PageUC
	ExperimentUC *usecase.ExperimentUC
	Registry     *engine.Registry
}

func NewApp(db *gorm.DB) (*App, error) {
	storeID, err := uuid.Parse(envOr("STORE_ID", devStoreID))
	if err != nil {
		return nil, err
	}

	pageRepo := postgres.NewPageConfigRepo(db)
	expRepo := postgres.NewExperimentRepo(db)
	treeCache := cache.NewMemory()

	registry := engine.NewRegistry()
	components.RegisterBuiltins(registry)

	app := &App{
		DB:       db,
		StoreID:  storeID,
		Registry: registry,
	}
	app.PageUC = &usecase.PageUC{
		Pages:      pageRepo,
		Assigner:   assign.New(expRepo),
		Cache:      treeCache,
		Dispatcher: engine.NewDispatcher(registry),
	}
	app.ExperimentUC = &usecase.ExperimentUC{
		Experiments: expRepo,
		Cache:       treeCache,
	}
	return app, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.PageUC, a.ExperimentUC, a.StoreID)
}

func (a *App) MigrateAndSeed() error {
	if err := a.DB.AutoMigrate(
		&domain.PageConfig{}, &domain.Experiment{}, &domain.Variant{},
	); err != nil {
		return err
	}

	// Una página tiene a lo sumo un draft y un published por tienda.
	_ = a.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_page_configs_unique_scope ON page_configs (store_id, page_type, status)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_page_configs_slots_gin ON page_configs USING gin (slots)").Error
	_ = a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_experiments_started_at ON experiments (started_at)").Error

	return a.seedHome()
}

// seedHome deja una home publicada mínima para que una tienda recién creada
// no responda 404 en "/".
func (a *App) seedHome() error {
	var count int64
	if err := a.DB.Model(&domain.PageConfig{}).
		Where("store_id = ? AND page_type = ?", a.StoreID, "home").
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	slots := map[string]*domain.Slot{
		"root": {
			ID:        "root",
			Type:      domain.SlotContainer,
			ClassName: "max-w-6xl mx-auto px-4",
		},
		"hero": {
			ID:        "hero",
			ParentID:  "root",
			Type:      domain.SlotText,
			Content:   "Bienvenido a {{store.name}}",
			ClassName: "text-3xl font-bold",
			Metadata:  map[string]any{"htmlTag": "h1"},
			Position:  domain.Position{Col: 0},
		},
		"announcement": {
			ID:       "announcement",
			ParentID: "root",
			Type:     domain.SlotComponent,
			Metadata: map[string]any{"component": "AnnouncementBar"},
			Props:    map[string]any{"text": "Envío gratis en compras grandes"},
			Position: domain.Position{Col: 1},
		},
		"catalog": {
			ID:       "catalog",
			ParentID: "root",
			Type:     domain.SlotComponent,
			Metadata: map[string]any{"component": "ProductGrid"},
			Position: domain.Position{Col: 2},
		},
	}

	for _, status := range []domain.PageStatus{domain.PageStatusDraft, domain.PageStatusPublished} {
		cfg := &domain.PageConfig{
			ID:       uuid.New(),
			StoreID:  a.StoreID,
			PageType: "home",
			Status:   status,
			Slots:    slots,
			FeatureFlags: map[string]any{
				"announcement_bar": true,
			},
			Version: 1,
		}
		if err := a.DB.Create(cfg).Error; err != nil {
			return err
		}
	}
	log.Info().Str("store", a.StoreID.String()).Msg("home inicial creada")
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
