package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/vitrina/internal/domain"
	"github.com/phenrril/vitrina/internal/engine"
)

type PageUC struct {
	Pages      domain.PageConfigRepo
	Assigner   domain.VariantAssigner
	Cache      domain.TreeCache
	Dispatcher *engine.Dispatcher
}

// PreviewOptions controla un render de editor: viewport simulado, view mode
// y, opcionalmente, una variante forzada para previsualizar un experimento.
type PreviewOptions struct {
	Viewport domain.Viewport
	ViewMode string
	Variants []domain.Variant
	Data     map[string]any
}

// RenderStorefront renderiza la página publicada para una sesión: variantes
// asignadas, merge cacheado por (página, conjunto de variantes) y dispatch en
// modo storefront. data llega ya armado y formateado por el data loader de la
// página.
func (uc *PageUC) RenderStorefront(ctx context.Context, storeID uuid.UUID, pageType, sessionID string, data map[string]any) (*domain.RenderNode, error) {
	if pageType == "" {
		return nil, errors.New("pageType vacío")
	}
	var variants []domain.Variant
	if uc.Assigner != nil && sessionID != "" {
		v, err := uc.Assigner.Assign(ctx, storeID, pageType, sessionID)
		if err != nil {
			return nil, err
		}
		variants = v
	}

	merged, err := uc.effectiveTree(ctx, storeID, pageType, variants)
	if err != nil {
		return nil, err
	}

	return uc.Dispatcher.Render(merged, &engine.RenderContext{
		Data: data,
		Mode: domain.ModeStorefront,
	}), nil
}

// RenderPreview renderiza el draft en modo editor. No pasa por el cache: el
// editor re-renderiza en cada tecla y siempre quiere el estado más fresco.
func (uc *PageUC) RenderPreview(ctx context.Context, storeID uuid.UUID, pageType string, opts PreviewOptions) (*domain.RenderNode, error) {
	if pageType == "" {
		return nil, errors.New("pageType vacío")
	}
	draft, err := uc.Pages.FindDraft(ctx, storeID, pageType)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTree(draft); err != nil {
		return nil, err
	}

	merged := engine.Merge(draft, opts.Variants)
	return uc.Dispatcher.Render(merged, &engine.RenderContext{
		Data:     opts.Data,
		Mode:     domain.ModeEditor,
		Viewport: opts.Viewport,
		ViewMode: opts.ViewMode,
	}), nil
}

// SaveDraft valida los invariantes del árbol antes de persistir; un árbol con
// ciclos o cols repetidas se rechaza acá y nunca llega al motor.
func (uc *PageUC) SaveDraft(ctx context.Context, cfg *domain.PageConfig) error {
	if cfg == nil {
		return errors.New("config nil")
	}
	if cfg.PageType == "" {
		return errors.New("pageType vacío")
	}
	if err := domain.ValidateTree(cfg); err != nil {
		return err
	}
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	cfg.Status = domain.PageStatusDraft
	return uc.Pages.Save(ctx, cfg)
}

// Publish copia el draft sobre el registro published y revienta el cache de
// la página: la próxima request rearma el árbol efectivo.
func (uc *PageUC) Publish(ctx context.Context, storeID uuid.UUID, pageType string) (*domain.PageConfig, error) {
	if pageType == "" {
		return nil, errors.New("pageType vacío")
	}
	published, err := uc.Pages.Publish(ctx, storeID, pageType)
	if err != nil {
		return nil, err
	}
	if uc.Cache != nil {
		uc.Cache.InvalidatePage(storeID, pageType)
	}
	return published, nil
}

func (uc *PageUC) Draft(ctx context.Context, storeID uuid.UUID, pageType string) (*domain.PageConfig, error) {
	return uc.Pages.FindDraft(ctx, storeID, pageType)
}

func (uc *PageUC) PageTypes(ctx context.Context, storeID uuid.UUID) ([]string, error) {
	return uc.Pages.ListPageTypes(ctx, storeID)
}

func (uc *PageUC) effectiveTree(ctx context.Context, storeID uuid.UUID, pageType string, variants []domain.Variant) (*domain.PageConfig, error) {
	key := effectiveKey(storeID, pageType, variants)
	if uc.Cache != nil {
		if cached, ok := uc.Cache.Get(key); ok {
			return cached, nil
		}
	}

	base, err := uc.Pages.FindPublished(ctx, storeID, pageType)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTree(base); err != nil {
		return nil, err
	}

	merged := engine.Merge(base, variants)
	if uc.Cache != nil {
		uc.Cache.Set(key, merged)
	}
	return merged, nil
}

// effectiveKey arma la clave de cache. El orden de asignación forma parte de
// la clave porque también define el resultado del merge.
func effectiveKey(storeID uuid.UUID, pageType string, variants []domain.Variant) string {
	parts := make([]string, 0, len(variants)+2)
	parts = append(parts, storeID.String(), pageType)
	for _, v := range variants {
		parts = append(parts, v.ID.String())
	}
	return strings.Join(parts, "|")
}
