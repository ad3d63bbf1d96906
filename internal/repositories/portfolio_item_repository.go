package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tropicaldog17/folio/internal/db"
	apperrors "github.com/tropicaldog17/folio/internal/errors"
	"github.com/tropicaldog17/folio/internal/logger"
	"github.com/tropicaldog17/folio/internal/models"
)

// MaxInsertAttempts bounds the schema-drift retry of portfolio item inserts.
const MaxInsertAttempts = 3

// rowInserter writes one payload into the portfolio_items table.
type rowInserter func(ctx context.Context, payload map[string]interface{}) error

type portfolioItemRepository struct {
	db     *db.DB
	insert rowInserter
	log    *zap.Logger
}

func NewPortfolioItemRepository(database *db.DB, log *zap.Logger) PortfolioItemRepository {
	r := &portfolioItemRepository{db: database, log: logger.OrNop(log)}
	r.insert = r.insertRow
	return r
}

func (r *portfolioItemRepository) List(ctx context.Context, userID *string) ([]*models.PortfolioItem, error) {
	var list []*models.PortfolioItem
	q := r.db.WithContext(ctx).Model(&models.PortfolioItem{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	} else {
		q = q.Where("user_id IS NULL")
	}
	if err := q.Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list portfolio items: %w", err)
	}
	return list, nil
}

// Create inserts the item. When the store rejects a column it does not know, that
// column is dropped from the payload and the insert retried, up to MaxInsertAttempts
// attempts in total.
func (r *portfolioItemRepository) Create(ctx context.Context, item *models.PortfolioItem) (*models.PortfolioItem, error) {
	payload := item.InsertPayload()
	var dropped []string
	var lastErr error

	for attempt := 1; attempt <= MaxInsertAttempts; attempt++ {
		err := r.insert(ctx, payload)
		if err == nil {
			return r.getByID(ctx, item.ID)
		}
		lastErr = err

		class := ClassifyStoreError(err)
		if class.Kind != StoreErrorMissingColumn || class.Column == "id" {
			return nil, fmt.Errorf("failed to insert portfolio item: %w", err)
		}
		if _, ok := payload[class.Column]; !ok {
			return nil, fmt.Errorf("failed to insert portfolio item: %w", err)
		}

		delete(payload, class.Column)
		dropped = append(dropped, class.Column)
		r.log.Warn("dropped unknown column from portfolio item payload",
			zap.String("column", class.Column),
			zap.Int("attempt", attempt),
		)
	}

	return nil, &apperrors.SchemaMismatchError{Attempts: MaxInsertAttempts, Dropped: dropped, Err: lastErr}
}

func (r *portfolioItemRepository) Update(ctx context.Context, id, userID string, updates map[string]interface{}) (*models.PortfolioItem, error) {
	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.PortfolioItem{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update portfolio item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, apperrors.ErrNotFound
		}
	}

	var item models.PortfolioItem
	err := r.db.WithContext(ctx).First(&item, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio item: %w", err)
	}
	return &item, nil
}

func (r *portfolioItemRepository) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.PortfolioItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete portfolio item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *portfolioItemRepository) insertRow(ctx context.Context, payload map[string]interface{}) error {
	return r.db.WithContext(ctx).Table(models.PortfolioItem{}.TableName()).Create(payload).Error
}

func (r *portfolioItemRepository) getByID(ctx context.Context, id string) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to load inserted portfolio item: %w", err)
	}
	return &item, nil
}
