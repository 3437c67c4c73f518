package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/vitrina/internal/domain"
)

type ExperimentRepo struct{ db *gorm.DB }

func NewExperimentRepo(db *gorm.DB) *ExperimentRepo { return &ExperimentRepo{db: db} }

func (r *ExperimentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Experiment, error) {
	var e domain.Experiment
	if err := r.db.WithContext(ctx).Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at asc")
	}).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *ExperimentRepo) ListByPage(ctx context.Context, storeID uuid.UUID, pageType string) ([]domain.Experiment, error) {
	var list []domain.Experiment
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND page_type = ?", storeID, pageType).
		Order("created_at asc").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ActiveByPage devuelve los experimentos running en orden de arranque; ese
// orden define la prioridad de aplicación de variantes en el merge.
func (r *ExperimentRepo) ActiveByPage(ctx context.Context, storeID uuid.UUID, pageType string) ([]domain.Experiment, error) {
	var list []domain.Experiment
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND page_type = ? AND status = ?", storeID, pageType, domain.ExperimentRunning).
		Order("started_at asc").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ExperimentRepo) Save(ctx context.Context, e *domain.Experiment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(e).Error
}
