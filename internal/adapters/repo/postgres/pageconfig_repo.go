package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/vitrina/internal/domain"
)

type PageConfigRepo struct{ db *gorm.DB }

func NewPageConfigRepo(db *gorm.DB) *PageConfigRepo { return &PageConfigRepo{db: db} }

func (r *PageConfigRepo) FindPublished(ctx context.Context, storeID uuid.UUID, pageType string) (*domain.PageConfig, error) {
	return r.find(ctx, storeID, pageType, domain.PageStatusPublished)
}

func (r *PageConfigRepo) FindDraft(ctx context.Context, storeID uuid.UUID, pageType string) (*domain.PageConfig, error) {
	return r.find(ctx, storeID, pageType, domain.PageStatusDraft)
}

func (r *PageConfigRepo) find(ctx context.Context, storeID uuid.UUID, pageType string, status domain.PageStatus) (*domain.PageConfig, error) {
	var cfg domain.PageConfig
	err := r.db.WithContext(ctx).
		First(&cfg, "store_id = ? AND page_type = ? AND status = ?", storeID, pageType, status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *PageConfigRepo) Save(ctx context.Context, cfg *domain.PageConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	// Un solo registro por (tienda, página, status): si ya existe se pisa.
	var existing domain.PageConfig
	err := r.db.WithContext(ctx).
		First(&existing, "store_id = ? AND page_type = ? AND status = ?", cfg.StoreID, cfg.PageType, cfg.Status).Error
	switch {
	case err == nil:
		cfg.ID = existing.ID
		cfg.Version = existing.Version + 1
		cfg.CreatedAt = existing.CreatedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
		// primera versión
	default:
		return err
	}
	return r.db.WithContext(ctx).Save(cfg).Error
}

// Publish copia el draft sobre el registro published dentro de una
// transacción y devuelve la copia publicada.
func (r *PageConfigRepo) Publish(ctx context.Context, storeID uuid.UUID, pageType string) (*domain.PageConfig, error) {
	draft, err := r.FindDraft(ctx, storeID, pageType)
	if err != nil {
		return nil, err
	}

	var published *domain.PageConfig
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pub := draft.Clone()
		pub.Status = domain.PageStatusPublished

		var existing domain.PageConfig
		ferr := tx.First(&existing, "store_id = ? AND page_type = ? AND status = ?",
			storeID, pageType, domain.PageStatusPublished).Error
		switch {
		case ferr == nil:
			pub.ID = existing.ID
			pub.Version = existing.Version + 1
			pub.CreatedAt = existing.CreatedAt
		case errors.Is(ferr, gorm.ErrRecordNotFound):
			pub.ID = uuid.New()
			pub.Version = 1
		default:
			return ferr
		}
		if err := tx.Save(pub).Error; err != nil {
			return err
		}
		published = pub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return published, nil
}

func (r *PageConfigRepo) ListPageTypes(ctx context.Context, storeID uuid.UUID) ([]string, error) {
	types := []string{}
	if err := r.db.WithContext(ctx).Model(&domain.PageConfig{}).
		Distinct("page_type").Where("store_id = ?", storeID).
		Order("page_type asc").Pluck("page_type", &types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
