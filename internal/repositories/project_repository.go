package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tropicaldog17/folio/internal/db"
	apperrors "github.com/tropicaldog17/folio/internal/errors"
	"github.com/tropicaldog17/folio/internal/models"
)

type projectRepository struct {
	db *db.DB
}

func NewProjectRepository(database *db.DB) ProjectRepository {
	return &projectRepository{db: database}
}

func (r *projectRepository) ListByOwner(ctx context.Context, userID string) ([]*models.Project, error) {
	var list []*models.Project
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return list, nil
}

func (r *projectRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return r.get(ctx, p.ID, p.UserID)
}

func (r *projectRepository) Update(ctx context.Context, id, userID string, updates map[string]interface{}) (*models.Project, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Project{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update project: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, apperrors.ErrNotFound
		}
	}
	return r.get(ctx, id, userID)
}

func (r *projectRepository) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Project{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete project: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *projectRepository) get(ctx context.Context, id, userID string) (*models.Project, error) {
	var p models.Project
	err := r.db.WithContext(ctx).First(&p, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &p, nil
}
